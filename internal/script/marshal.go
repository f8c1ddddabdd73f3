package script

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ElementReferenceKey is the reserved member name marking a JSON object as
// an element reference (W3C WebDriver element identifier).
const ElementReferenceKey = "element-6066-11e4-a52e-4f735466cecf"

// ResolvedElement is the registry's view of a live element: the borrowed
// native handle plus the attachment facts the marshaler validates.
type ResolvedElement interface {
	Handle() *goja.Object
	Attached() bool
	OwnerDocument() *goja.Object
}

// ElementRegistry resolves opaque element identifiers to live handles and
// mints identifiers for elements surfaced by script results. It is a shared
// read-mostly collaborator; the marshaler only queries it.
type ElementRegistry interface {
	Lookup(id string) (ResolvedElement, bool)
	Register(handle *goja.Object) string
}

// AddArguments ingests a JSON argument list sequentially. Ingestion stops
// at the first failing element and reports its status; the argument list is
// then partially filled and the Script must be discarded.
func (s *Script) AddArguments(registry ElementRegistry, args []interface{}) Status {
	for _, arg := range args {
		if status := s.AddArgumentFromJSON(registry, arg); status != StatusSuccess {
			return status
		}
	}
	return StatusSuccess
}

// AddArgumentFromJSON ingests one JSON value as the next positional
// argument, dispatching on its kind. Composites recurse through synthetic
// invocations; element references resolve and validate through the registry.
func (s *Script) AddArgumentFromJSON(registry ElementRegistry, arg interface{}) Status {
	switch v := arg.(type) {
	case nil:
		return s.statusOf(s.AddNullArgument())
	case string:
		return s.statusOf(s.AddStringArgument(v))
	case bool:
		return s.statusOf(s.AddBoolArgument(v))
	case int:
		return s.statusOf(s.AddIntArgument(int64(v)))
	case int64:
		return s.statusOf(s.AddIntArgument(v))
	case float64:
		// JSON decoding yields float64 for every number; keep integral
		// values in the integer variant.
		if math.Trunc(v) == v && math.Abs(v) < 1<<53 {
			return s.statusOf(s.AddIntArgument(int64(v)))
		}
		return s.statusOf(s.AddDoubleArgument(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return s.statusOf(s.AddIntArgument(i))
		}
		f, err := v.Float64()
		if err != nil {
			s.log.Warn("unparseable numeric argument", zap.String("value", v.String()))
			return StatusScriptError
		}
		return s.statusOf(s.AddDoubleArgument(f))
	case []interface{}:
		return s.walkArray(registry, v)
	case map[string]interface{}:
		if id, ok := v[ElementReferenceKey].(string); ok {
			return s.addElementReference(registry, id)
		}
		return s.walkObject(registry, v)
	default:
		s.log.Warn("unsupported argument kind, ingesting as null")
		return s.statusOf(s.AddNullArgument())
	}
}

func (s *Script) statusOf(err error) Status {
	if err != nil {
		s.log.Error("argument ingestion failed", zap.Error(err))
		return StatusScriptError
	}
	return StatusSuccess
}

// addElementReference resolves id through the registry and validates that
// the element is still attached to the document bound to this engine.
// Validity is checked now, at ingestion, never cached.
func (s *Script) addElementReference(registry ElementRegistry, id string) Status {
	if registry == nil {
		return StatusObsoleteElement
	}
	element, ok := registry.Lookup(id)
	if !ok {
		s.log.Info("element reference not found", zap.String("id", id))
		return StatusObsoleteElement
	}
	if !element.Attached() {
		s.log.Info("element no longer attached", zap.String("id", id))
		return StatusObsoleteElement
	}
	if s.host == nil || !s.host.OwnsDocument(element.OwnerDocument()) {
		s.log.Info("element belongs to a different document", zap.String("id", id))
		return StatusObsoleteElement
	}
	return s.statusOf(s.AddElementArgument(element.Handle()))
}

// walkArray reconstructs a JSON array inside the engine. The synthetic body
// rebuilds the array from its positional parameters in index order; each
// entry is recursively ingested, so nested composites trigger further
// synthetic invocations, innermost first. The nested invocation's single
// result becomes one composite argument of the enclosing one.
func (s *Script) walkArray(registry ElementRegistry, array []interface{}) Status {
	var body strings.Builder
	body.WriteString("(function(){ return function() { return [")
	for i := range array {
		if i != 0 {
			body.WriteString(",")
		}
		body.WriteString("arguments[")
		body.WriteString(strconv.Itoa(i))
		body.WriteString("]")
	}
	body.WriteString("];}})();")

	wrapper := New(s.host, body.String(), len(array))
	for _, entry := range array {
		if status := wrapper.AddArgumentFromJSON(registry, entry); status != StatusSuccess {
			return status
		}
	}
	if status := wrapper.Execute(); status != StatusSuccess {
		return status
	}
	return s.statusOf(s.AddArgument(wrapper.Result().Native()))
}

// walkObject is the same technique for objects: the synthetic body returns
// an object literal keyed by the original member names, each value drawn
// from the matching positional parameter. Member order follows a single
// enumeration pass; JSON object order is not preserved.
func (s *Script) walkObject(registry ElementRegistry, object map[string]interface{}) Status {
	members := make([]string, 0, len(object))
	for name := range object {
		members = append(members, name)
	}

	var body strings.Builder
	body.WriteString("(function(){ return function() { return {")
	for i, name := range members {
		if i != 0 {
			body.WriteString(",")
		}
		body.WriteString(strconv.Quote(name))
		body.WriteString(":arguments[")
		body.WriteString(strconv.Itoa(i))
		body.WriteString("]")
	}
	body.WriteString("};}})();")

	wrapper := New(s.host, body.String(), len(members))
	for _, name := range members {
		if status := wrapper.AddArgumentFromJSON(registry, object[name]); status != StatusSuccess {
			return status
		}
	}
	if status := wrapper.Execute(); status != StatusSuccess {
		return status
	}
	return s.statusOf(s.AddArgument(wrapper.Result().Native()))
}

// ConvertResultToJSON renders the invocation result back to the JSON
// representation, consulting the registry to mint references for element
// and element-collection results.
func (s *Script) ConvertResultToJSON(registry ElementRegistry) (interface{}, Status) {
	return convertValueToJSON(registry, s.result)
}

// ConvertResultToString renders the result as a string. Null and empty
// results render as the empty string; booleans render as "true"/"false".
func (s *Script) ConvertResultToString() (string, bool) {
	v := s.result
	switch {
	case v.IsEmpty() || v.IsNull():
		return "", true
	case v.IsBoolean():
		if v.Native().ToBoolean() {
			return "true", true
		}
		return "false", true
	case v.IsString(), v.IsInteger(), v.IsDouble():
		return v.Native().String(), true
	}
	return "", false
}

func convertValueToJSON(registry ElementRegistry, v Value) (interface{}, Status) {
	switch {
	case v.IsEmpty() || v.IsNull():
		return nil, StatusSuccess
	case v.IsString():
		return v.Native().String(), StatusSuccess
	case v.IsInteger():
		return v.Native().Export(), StatusSuccess
	case v.IsDouble():
		return v.Native().Export(), StatusSuccess
	case v.IsBoolean():
		return v.Native().ToBoolean(), StatusSuccess
	case v.IsElement():
		if registry == nil {
			return nil, StatusObsoleteElement
		}
		id := registry.Register(v.Object())
		return map[string]interface{}{ElementReferenceKey: id}, StatusSuccess
	case v.IsElementCollection(), v.IsArray():
		return convertArrayLikeToJSON(registry, v)
	case v.IsObject():
		return convertObjectToJSON(registry, v)
	}
	// Functions and other opaque handles have no JSON rendering.
	return nil, StatusSuccess
}

func convertArrayLikeToJSON(registry ElementRegistry, v Value) (interface{}, Status) {
	obj := v.Object()
	length, ok := lengthOf(obj)
	if !ok {
		return nil, StatusScriptError
	}
	out := make([]interface{}, 0, length)
	for i := int64(0); i < length; i++ {
		entry := newValue(v.host, obj.Get(strconv.FormatInt(i, 10)))
		converted, status := convertValueToJSON(registry, entry)
		if status != StatusSuccess {
			return nil, status
		}
		out = append(out, converted)
	}
	return out, StatusSuccess
}

func convertObjectToJSON(registry ElementRegistry, v Value) (interface{}, Status) {
	obj := v.Object()
	out := make(map[string]interface{})
	for _, key := range obj.Keys() {
		entry := newValue(v.host, obj.Get(key))
		converted, status := convertValueToJSON(registry, entry)
		if status != StatusSuccess {
			return nil, status
		}
		out[key] = converted
	}
	return out, StatusSuccess
}
