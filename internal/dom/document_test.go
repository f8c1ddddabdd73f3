package dom

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SecorD0/selenium/internal/logging"
)

const testPage = `<html>
<head><title>Fixture</title></head>
<body>
  <div id="greeting" class="box">Hello, <b>world</b></div>
  <ul>
    <li>one</li>
    <li>two</li>
  </ul>
</body>
</html>`

func parseTestPage(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(goja.New(), testPage, logging.NewNop())
	require.NoError(t, err)
	return doc
}

func TestParseInstallsDocumentGlobal(t *testing.T) {
	vm := goja.New()
	doc, err := Parse(vm, testPage, logging.NewNop())
	require.NoError(t, err)

	v, err := vm.RunString("document.nodeType")
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Export())

	global := vm.GlobalObject().Get("document")
	require.NotNil(t, global)
	assert.True(t, doc.Object().SameAs(global))
}

func TestFindByXPath(t *testing.T) {
	doc := parseTestPage(t)

	handle, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)
	assert.Equal(t, "DIV", handle.Get("tagName").Export())
	assert.Equal(t, "greeting", handle.Get("id").Export())
	assert.Equal(t, "Hello, world", handle.Get("textContent").Export())
}

func TestFindMissingElement(t *testing.T) {
	doc := parseTestPage(t)
	_, err := doc.Find("//div[@id='absent']")
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestFindAll(t *testing.T) {
	doc := parseTestPage(t)
	handles, err := doc.FindAll("//li")
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, "one", handles[0].Get("textContent").Export())
	assert.Equal(t, "two", handles[1].Get("textContent").Export())
}

func TestHandleIdentityIsStable(t *testing.T) {
	doc := parseTestPage(t)

	first, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)
	second, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestContainsAndRemove(t *testing.T) {
	doc := parseTestPage(t)

	handle, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)
	assert.True(t, doc.Contains(handle))

	require.True(t, doc.Remove(handle))
	assert.False(t, doc.Contains(handle))

	// Removing twice is a no-op.
	assert.False(t, doc.Remove(handle))
}

func TestContainsRejectsForeignHandle(t *testing.T) {
	doc := parseTestPage(t)
	foreign := doc.Runtime().NewObject()
	assert.False(t, doc.Contains(foreign))
}

func TestGetAttribute(t *testing.T) {
	doc := parseTestPage(t)
	handle, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)

	vm := doc.Runtime()
	require.NoError(t, vm.Set("el", handle))

	v, err := vm.RunString("el.getAttribute('class')")
	require.NoError(t, err)
	assert.Equal(t, "box", v.Export())

	v, err = vm.RunString("el.getAttribute('missing')")
	require.NoError(t, err)
	assert.True(t, goja.IsNull(v))
}

func TestTextContentTracksLiveTree(t *testing.T) {
	doc := parseTestPage(t)

	div, err := doc.Find("//div[@id='greeting']")
	require.NoError(t, err)
	bold, err := doc.Find("//div[@id='greeting']/b")
	require.NoError(t, err)

	require.True(t, doc.Remove(bold))
	assert.Equal(t, "Hello, ", div.Get("textContent").Export())
}

func TestDocumentElement(t *testing.T) {
	doc := parseTestPage(t)
	root := doc.Object().Get("documentElement")
	require.NotNil(t, root)
	rootObj, ok := root.(*goja.Object)
	require.True(t, ok)
	assert.Equal(t, "HTML", rootObj.Get("tagName").Export())
}
