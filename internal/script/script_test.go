package script

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SecorD0/selenium/internal/logging"
)

// newTestHost builds an engine with a minimal document bound to it.
func newTestHost(t *testing.T) *Host {
	t.Helper()
	vm := goja.New()
	doc := vm.NewObject()
	require.NoError(t, doc.Set("nodeType", documentNodeType))
	require.NoError(t, vm.Set("document", doc))
	return NewHost(vm, doc, logging.NewNop())
}

// newTestElement builds an element-shaped native handle on the host.
func newTestElement(t *testing.T, host *Host, tag, text string) *goja.Object {
	t.Helper()
	obj := host.Runtime().NewObject()
	require.NoError(t, obj.Set("nodeType", elementNodeType))
	require.NoError(t, obj.Set("tagName", tag))
	require.NoError(t, obj.Set("textContent", text))
	return obj
}

func wrapBody(body string) string {
	return "(function() { return function(){" + body + "};})();"
}

func TestExecuteSimpleReturn(t *testing.T) {
	host := newTestHost(t)
	s := New(host, wrapBody("return 1+1;"), 0)

	require.Equal(t, StatusSuccess, s.Execute())
	assert.True(t, s.ResultIsInteger())
	assert.Equal(t, int64(2), s.Result().Native().Export())
}

func TestExecuteMissingHost(t *testing.T) {
	s := New(nil, wrapBody("return 1;"), 0)
	assert.Equal(t, StatusHostUnavailable, s.Execute())
}

func TestExecuteNonInvokableResult(t *testing.T) {
	host := newTestHost(t)
	// The source evaluates to a number, not a function. Nothing to invoke,
	// so the call succeeds with an empty result.
	s := New(host, "(function(){ return 42; })();", 0)

	require.Equal(t, StatusSuccess, s.Execute())
	assert.True(t, s.ResultIsEmpty())
}

func TestExecuteCompileFailure(t *testing.T) {
	host := newTestHost(t)
	s := New(host, "(function(){ this is not javascript", 0)
	assert.Equal(t, StatusScriptError, s.Execute())
}

func TestExecuteThrownException(t *testing.T) {
	host := newTestHost(t)
	s := New(host, wrapBody("throw new Error('boom');"), 0)

	require.Equal(t, StatusScriptError, s.Execute())
	desc, ok := s.ConvertResultToString()
	require.True(t, ok)
	assert.Contains(t, desc, "boom")
}

func TestAddArgumentOverflowFailsFast(t *testing.T) {
	host := newTestHost(t)
	s := New(host, wrapBody("return arguments[0];"), 1)

	require.NoError(t, s.AddStringArgument("first"))
	err := s.AddStringArgument("second")
	require.ErrorIs(t, err, ErrTooManyArguments)
	// The list never grew past its declared size.
	assert.Len(t, s.args, 1)
}

func TestCallFramePacking(t *testing.T) {
	host := newTestHost(t)
	s := New(host, wrapBody("return null;"), 3)
	require.NoError(t, s.AddStringArgument("a"))
	require.NoError(t, s.AddStringArgument("b"))
	require.NoError(t, s.AddStringArgument("c"))

	receiver := host.Runtime().GlobalObject()
	frame := s.buildCallFrame(receiver)

	// Argument i sits at slot N-1-i; the receiver takes slot N.
	require.Len(t, frame, 4)
	assert.Equal(t, "a", frame[2].Export())
	assert.Equal(t, "b", frame[1].Export())
	assert.Equal(t, "c", frame[0].Export())
	assert.Same(t, receiver, frame[3])
}

func TestArgumentsArriveInAddedOrder(t *testing.T) {
	host := newTestHost(t)
	// The frame reversal and the dispatch un-reversal must cancel out so
	// the callee sees arguments in the order they were added.
	s := New(host, wrapBody("return arguments[0]+'-'+arguments[1]+'-'+arguments[2];"), 3)
	require.NoError(t, s.AddStringArgument("x"))
	require.NoError(t, s.AddStringArgument("y"))
	require.NoError(t, s.AddStringArgument("z"))

	require.Equal(t, StatusSuccess, s.Execute())
	assert.Equal(t, "x-y-z", s.Result().Native().String())
}

func TestReceiverIsGlobalObject(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Runtime().Set("marker", "receiver-check"))
	s := New(host, wrapBody("return this.marker;"), 0)

	require.Equal(t, StatusSuccess, s.Execute())
	assert.Equal(t, "receiver-check", s.Result().Native().String())
}

func TestBindingRemovedAfterExecute(t *testing.T) {
	host := newTestHost(t)
	s := New(host, wrapBody("return 7;"), 0)
	require.Equal(t, StatusSuccess, s.Execute())

	for _, key := range host.Runtime().GlobalObject().Keys() {
		assert.NotContains(t, key, bindingPrefix)
	}
}

func TestResultClassification(t *testing.T) {
	host := newTestHost(t)

	tests := []struct {
		name   string
		body   string
		verify func(t *testing.T, s *Script)
	}{
		{
			name: "string",
			body: "return 'text';",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsString())
				assert.False(t, s.ResultIsInteger())
			},
		},
		{
			name: "integer",
			body: "return 41+1;",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsInteger())
				assert.False(t, s.ResultIsDouble())
			},
		},
		{
			name: "double",
			body: "return 1.5;",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsDouble())
				assert.False(t, s.ResultIsInteger())
			},
		},
		{
			name: "boolean",
			body: "return true;",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsBoolean())
			},
		},
		{
			name: "null",
			body: "return null;",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.Result().IsNull())
				assert.False(t, s.ResultIsEmpty())
			},
		},
		{
			name: "undefined",
			body: "return undefined;",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsEmpty())
			},
		},
		{
			name: "array",
			body: "return [1, 2, 3];",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsArray())
				assert.True(t, s.ResultIsObjectHandle())
				assert.False(t, s.ResultIsObject())
				assert.False(t, s.ResultIsElementCollection())
			},
		},
		{
			name: "object",
			body: "return {a: 1};",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsObject())
				assert.True(t, s.ResultIsObjectHandle())
				assert.False(t, s.ResultIsArray())
			},
		},
		{
			name: "function handle",
			body: "return function(){};",
			verify: func(t *testing.T, s *Script) {
				assert.True(t, s.ResultIsObjectHandle())
				assert.False(t, s.ResultIsObject())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(host, wrapBody(tt.body), 0)
			require.Equal(t, StatusSuccess, s.Execute())
			tt.verify(t, s)
		})
	}
}

func TestResultIsElement(t *testing.T) {
	host := newTestHost(t)
	element := newTestElement(t, host, "DIV", "hello")
	require.NoError(t, host.Runtime().Set("el", element))

	s := New(host, wrapBody("return el;"), 0)
	require.Equal(t, StatusSuccess, s.Execute())
	assert.True(t, s.ResultIsElement())
	assert.False(t, s.ResultIsObject())
}

func TestResultIsElementCollection(t *testing.T) {
	host := newTestHost(t)
	require.NoError(t, host.Runtime().Set("a", newTestElement(t, host, "SPAN", "one")))
	require.NoError(t, host.Runtime().Set("b", newTestElement(t, host, "SPAN", "two")))

	s := New(host, wrapBody("return [a, b];"), 0)
	require.Equal(t, StatusSuccess, s.Execute())
	assert.True(t, s.ResultIsElementCollection())

	// A mixed array is an array, not an element collection.
	mixed := New(host, wrapBody("return [a, 1];"), 0)
	require.Equal(t, StatusSuccess, mixed.Execute())
	assert.False(t, mixed.ResultIsElementCollection())
	assert.True(t, mixed.ResultIsArray())
}
