package script

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement satisfies ResolvedElement with controllable facts.
type fakeElement struct {
	handle   *goja.Object
	attached bool
	doc      *goja.Object
}

func (f *fakeElement) Handle() *goja.Object        { return f.handle }
func (f *fakeElement) Attached() bool              { return f.attached }
func (f *fakeElement) OwnerDocument() *goja.Object { return f.doc }

// fakeRegistry is an in-memory ElementRegistry for marshaler tests.
type fakeRegistry struct {
	elements map[string]*fakeElement
	minted   map[*goja.Object]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		elements: make(map[string]*fakeElement),
		minted:   make(map[*goja.Object]string),
	}
}

func (r *fakeRegistry) Lookup(id string) (ResolvedElement, bool) {
	element, ok := r.elements[id]
	if !ok {
		return nil, false
	}
	return element, true
}

func (r *fakeRegistry) Register(handle *goja.Object) string {
	if id, ok := r.minted[handle]; ok {
		return id
	}
	id := uuid.NewString()
	r.minted[handle] = id
	r.elements[id] = &fakeElement{handle: handle, attached: true}
	return id
}

func (r *fakeRegistry) add(host *Host, handle *goja.Object, attached bool) string {
	id := uuid.NewString()
	r.elements[id] = &fakeElement{handle: handle, attached: attached, doc: host.Document()}
	return id
}

func elementRef(id string) map[string]interface{} {
	return map[string]interface{}{ElementReferenceKey: id}
}

func TestAddArgumentsPrimitives(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	s := New(host, wrapBody("return [arguments[0], arguments[1], arguments[2], arguments[3], arguments[4]];"), 5)
	status := s.AddArguments(registry, []interface{}{int64(7), 2.5, "text", true, nil})
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, StatusSuccess, s.Execute())

	value, status := s.ConvertResultToJSON(registry)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, []interface{}{int64(7), 2.5, "text", true, nil}, value)
}

func TestJSONNumbersKeepIntegralForm(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	// JSON decoding hands every number over as float64; integral values
	// must still land in the integer variant.
	s := New(host, wrapBody("return arguments[0];"), 1)
	require.Equal(t, StatusSuccess, s.AddArguments(registry, []interface{}{float64(3)}))
	require.Equal(t, StatusSuccess, s.Execute())
	assert.True(t, s.ResultIsInteger())
}

func TestCompositeArgumentBuiltBeforeOuterExecute(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	// Ingesting a nested composite runs its synthetic invocations
	// immediately, innermost first: the outer invocation has not executed
	// yet, but its single argument is already a fully built native value.
	s := New(host, wrapBody("return arguments[0];"), 1)
	status := s.AddArgumentFromJSON(registry, map[string]interface{}{
		"a": []interface{}{int64(1), map[string]interface{}{"b": true}},
	})
	require.Equal(t, StatusSuccess, status)
	require.Len(t, s.args, 1)

	arg, ok := s.args[0].(*goja.Object)
	require.True(t, ok)
	inner, ok := arg.Get("a").(*goja.Object)
	require.True(t, ok)
	assert.Equal(t, "Array", inner.ClassName())
}

func TestNestedCompositeRoundTrip(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	original := map[string]interface{}{
		"a": []interface{}{int64(1), map[string]interface{}{"b": true}},
		"c": "text",
	}

	s := New(host, wrapBody("return arguments[0];"), 1)
	require.Equal(t, StatusSuccess, s.AddArguments(registry, []interface{}{original}))
	require.Equal(t, StatusSuccess, s.Execute())

	value, status := s.ConvertResultToJSON(registry)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, original, value)
}

func TestDeepArrayRoundTrip(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	original := []interface{}{
		[]interface{}{[]interface{}{int64(1), int64(2)}, int64(3)},
		"tail",
	}

	s := New(host, wrapBody("return arguments[0];"), 1)
	require.Equal(t, StatusSuccess, s.AddArguments(registry, []interface{}{original}))
	require.Equal(t, StatusSuccess, s.Execute())

	value, status := s.ConvertResultToJSON(registry)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, original, value)
}

func TestArrayOrderPreserved(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	s := New(host, wrapBody("return arguments[0].join(',');"), 1)
	require.Equal(t, StatusSuccess, s.AddArguments(registry, []interface{}{
		[]interface{}{"first", "second", "third"},
	}))
	require.Equal(t, StatusSuccess, s.Execute())
	assert.Equal(t, "first,second,third", s.Result().Native().String())
}

func TestElementReferenceArgument(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()
	element := newTestElement(t, host, "DIV", "hello")
	id := registry.add(host, element, true)

	s := New(host, wrapBody("return arguments[0].tagName;"), 1)
	require.Equal(t, StatusSuccess, s.AddArguments(registry, []interface{}{elementRef(id)}))
	require.Equal(t, StatusSuccess, s.Execute())
	assert.Equal(t, "DIV", s.Result().Native().String())
}

func TestDetachedElementReportsObsolete(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()
	element := newTestElement(t, host, "DIV", "gone")
	id := registry.add(host, element, false)

	s := New(host, wrapBody("return arguments[0];"), 1)
	status := s.AddArguments(registry, []interface{}{elementRef(id)})
	assert.Equal(t, StatusObsoleteElement, status)
	// The failing reference added nothing.
	assert.Empty(t, s.args)
}

func TestUnknownElementReportsObsolete(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	s := New(host, wrapBody("return arguments[0];"), 1)
	status := s.AddArguments(registry, []interface{}{elementRef("no-such-id")})
	assert.Equal(t, StatusObsoleteElement, status)
}

func TestForeignDocumentElementReportsObsolete(t *testing.T) {
	host := newTestHost(t)
	otherHost := newTestHost(t)
	registry := newFakeRegistry()

	element := newTestElement(t, otherHost, "DIV", "foreign")
	id := registry.add(otherHost, element, true)

	s := New(host, wrapBody("return arguments[0];"), 1)
	status := s.AddArguments(registry, []interface{}{elementRef(id)})
	assert.Equal(t, StatusObsoleteElement, status)
}

func TestIngestionStopsAtFirstFailure(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()

	s := New(host, wrapBody("return arguments.length;"), 3)
	status := s.AddArguments(registry, []interface{}{
		"fine",
		elementRef("missing"),
		"never ingested",
	})
	assert.Equal(t, StatusObsoleteElement, status)
	// Partial fill: only the argument before the failure landed.
	assert.Len(t, s.args, 1)
}

func TestElementResultMintsReference(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()
	element := newTestElement(t, host, "A", "link")
	require.NoError(t, host.Runtime().Set("el", element))

	s := New(host, wrapBody("return el;"), 0)
	require.Equal(t, StatusSuccess, s.Execute())

	value, status := s.ConvertResultToJSON(registry)
	require.Equal(t, StatusSuccess, status)
	ref, ok := value.(map[string]interface{})
	require.True(t, ok)
	id, ok := ref[ElementReferenceKey].(string)
	require.True(t, ok)
	assert.Equal(t, id, registry.minted[element])
}

func TestElementCollectionResultMintsReferences(t *testing.T) {
	host := newTestHost(t)
	registry := newFakeRegistry()
	require.NoError(t, host.Runtime().Set("a", newTestElement(t, host, "LI", "one")))
	require.NoError(t, host.Runtime().Set("b", newTestElement(t, host, "LI", "two")))

	s := New(host, wrapBody("return [a, b];"), 0)
	require.Equal(t, StatusSuccess, s.Execute())

	value, status := s.ConvertResultToJSON(registry)
	require.Equal(t, StatusSuccess, status)
	list, ok := value.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
	for _, entry := range list {
		ref, ok := entry.(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, ref, ElementReferenceKey)
	}
}

func TestConvertResultToString(t *testing.T) {
	host := newTestHost(t)

	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{name: "string", body: "return 'value';", want: "value", ok: true},
		{name: "integer", body: "return 12;", want: "12", ok: true},
		{name: "boolean true", body: "return true;", want: "true", ok: true},
		{name: "boolean false", body: "return false;", want: "false", ok: true},
		{name: "null renders empty", body: "return null;", want: "", ok: true},
		{name: "object not renderable", body: "return {};", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(host, wrapBody(tt.body), 0)
			require.Equal(t, StatusSuccess, s.Execute())
			got, ok := s.ConvertResultToString()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
