package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeValidator(t *testing.T) {
	v := NewSizeValidator(8)

	assert.NoError(t, v.ValidateSize([]byte("12345678")))
	assert.Error(t, v.ValidateSize([]byte("123456789")))
	assert.NoError(t, v.ValidateString("short"))
	assert.Error(t, v.ValidateString("much too long"))
}

func TestValidateScriptSource(t *testing.T) {
	assert.NoError(t, ValidateScriptSource("return 1;"))
	assert.Error(t, ValidateScriptSource(strings.Repeat("x", MaxScriptSize+1)))
}

func TestValidatePageHTML(t *testing.T) {
	assert.NoError(t, ValidatePageHTML("<html></html>"))
	assert.Error(t, ValidatePageHTML(strings.Repeat("x", MaxPageSize+1)))
}

func TestValidateArgumentDepth(t *testing.T) {
	shallow := []interface{}{
		"string",
		[]interface{}{1, 2, 3},
		map[string]interface{}{"nested": []interface{}{true}},
	}
	require.NoError(t, ValidateArgumentDepth(shallow, MaxArgumentDepth))

	deep := interface{}("leaf")
	for i := 0; i < MaxArgumentDepth+2; i++ {
		deep = []interface{}{deep}
	}
	assert.Error(t, ValidateArgumentDepth([]interface{}{deep}, MaxArgumentDepth))
}

func TestValidateArgumentDepthAtBoundary(t *testing.T) {
	tree := interface{}("leaf")
	for i := 0; i < MaxArgumentDepth; i++ {
		tree = map[string]interface{}{"k": tree}
	}
	assert.NoError(t, ValidateArgumentDepth([]interface{}{tree}, MaxArgumentDepth))
}
