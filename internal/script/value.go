package script

import (
	"strconv"

	"github.com/dop251/goja"
)

// documentNodeType and elementNodeType follow the DOM numbering.
const (
	elementNodeType  = 1
	documentNodeType = 9
)

// Value is a classified view over a native engine value. The classification
// predicates never mutate the value; exactly one family of accessors is
// valid for a given value and the predicates determine which.
type Value struct {
	v    goja.Value
	host *Host
}

func newValue(host *Host, v goja.Value) Value {
	return Value{v: v, host: host}
}

// Native returns the raw engine value.
func (v Value) Native() goja.Value { return v.v }

// IsEmpty reports an absent result: nil or undefined.
func (v Value) IsEmpty() bool {
	return v.v == nil || goja.IsUndefined(v.v)
}

// IsNull reports the engine null value.
func (v Value) IsNull() bool {
	return v.v != nil && goja.IsNull(v.v)
}

func (v Value) IsString() bool {
	if v.IsEmpty() || v.IsNull() {
		return false
	}
	_, ok := v.v.Export().(string)
	return ok
}

// IsInteger reports a number the engine holds in integral form. Integral
// and fractional numbers are distinct variants, not a formatting detail.
func (v Value) IsInteger() bool {
	if v.IsEmpty() || v.IsNull() {
		return false
	}
	_, ok := v.v.Export().(int64)
	return ok
}

func (v Value) IsDouble() bool {
	if v.IsEmpty() || v.IsNull() {
		return false
	}
	_, ok := v.v.Export().(float64)
	return ok
}

func (v Value) IsBoolean() bool {
	if v.IsEmpty() || v.IsNull() {
		return false
	}
	_, ok := v.v.Export().(bool)
	return ok
}

// IsObjectHandle reports any generic native object reference, including
// functions. Object handles are context-affine and need explicit transfer
// when crossing execution contexts.
func (v Value) IsObjectHandle() bool {
	_, ok := v.v.(*goja.Object)
	return ok
}

// IsElement reports a DOM element node.
func (v Value) IsElement() bool {
	obj, ok := v.v.(*goja.Object)
	if !ok {
		return false
	}
	return nodeTypeOf(obj) == elementNodeType
}

// IsElementCollection reports an array-like value whose every entry is an
// element. An empty array-like is not a collection of elements.
func (v Value) IsElementCollection() bool {
	obj, ok := v.v.(*goja.Object)
	if !ok {
		return false
	}
	length, ok := lengthOf(obj)
	if !ok || length == 0 {
		return false
	}
	for i := int64(0); i < length; i++ {
		entry := obj.Get(strconv.FormatInt(i, 10))
		entryObj, ok := entry.(*goja.Object)
		if !ok || nodeTypeOf(entryObj) != elementNodeType {
			return false
		}
	}
	return true
}

func (v Value) IsArray() bool {
	obj, ok := v.v.(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

// IsObject reports a plain object: an object handle that is not an element,
// an element collection, an array, or a function.
func (v Value) IsObject() bool {
	obj, ok := v.v.(*goja.Object)
	if !ok {
		return false
	}
	if obj.ClassName() == "Array" || obj.ClassName() == "Function" {
		return false
	}
	return !v.IsElement() && !v.IsElementCollection()
}

// Object returns the value as a native object handle, or nil when the value
// is not one.
func (v Value) Object() *goja.Object {
	obj, _ := v.v.(*goja.Object)
	return obj
}

// nodeTypeOf returns the numeric nodeType of obj, or 0 when absent.
func nodeTypeOf(obj *goja.Object) int64 {
	nt := obj.Get("nodeType")
	if nt == nil || goja.IsUndefined(nt) || goja.IsNull(nt) {
		return 0
	}
	n, ok := nt.Export().(int64)
	if !ok {
		return 0
	}
	return n
}

// lengthOf returns the numeric length property of obj, if any.
func lengthOf(obj *goja.Object) (int64, bool) {
	lv := obj.Get("length")
	if lv == nil || goja.IsUndefined(lv) || goja.IsNull(lv) {
		return 0, false
	}
	n, ok := lv.Export().(int64)
	return n, ok
}
