package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValVoid ValueType = iota
	ValInt
	ValFloat
	ValBool
	ValString
	ValPointer
	ValObject
	ValArray
)

var valueTypeNames = [...]string{"void", "int", "float", "bool", "string", "voidptr", "object", "array"}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// Value is a tagged union. Primitives live in Data; strings, host pointers
// and aggregates live in Obj. Enum values are ints at run time.
//
// Aggregates form trees: every object or array stored in a variable, a
// field or an element is owned by exactly one place. The VM copies an
// aggregate whenever it is read as a whole value, so assignment is
// observably by value.
type Value struct {
	Type ValueType
	Data uint64      // Stores int64 bits, float64 bits, or bool (0/1)
	Obj  interface{} // string, *Aggregate, or the host pointer
}

// Constructors

func VoidVal() Value {
	return Value{Type: ValVoid}
}

func IntVal(v int64) Value {
	return Value{Type: ValInt, Data: uint64(v)}
}

func FloatVal(v float64) Value {
	return Value{Type: ValFloat, Data: math.Float64bits(v)}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func StringVal(s string) Value {
	return Value{Type: ValString, Obj: s}
}

// PointerVal wraps an opaque host pointer. nil is the null pointer.
func PointerVal(p interface{}) Value {
	return Value{Type: ValPointer, Obj: p}
}

// ObjectVal builds an object from its fields in member order.
func ObjectVal(fields ...Value) Value {
	return Value{Type: ValObject, Obj: &Aggregate{Elems: fields}}
}

// ArrayVal builds an array from its elements.
func ArrayVal(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Type: ValArray, Obj: &Aggregate{Elems: elems}}
}

// Accessors

func (v Value) AsInt() int64 {
	return int64(v.Data)
}

func (v Value) AsFloat() float64 {
	return math.Float64frombits(v.Data)
}

func (v Value) AsBool() bool {
	return v.Data == 1
}

func (v Value) AsString() string {
	s, _ := v.Obj.(string)
	return s
}

func (v Value) AsPointer() interface{} {
	if v.Type != ValPointer {
		return nil
	}
	return v.Obj
}

// Elems returns the fields of an object or the elements of an array.
// The slice is shared with the value.
func (v Value) Elems() []Value {
	if agg, ok := v.Obj.(*Aggregate); ok {
		return agg.Elems
	}
	return nil
}

func (v Value) IsVoid() bool      { return v.Type == ValVoid }
func (v Value) IsAggregate() bool { return v.Type == ValObject || v.Type == ValArray }

// Clone returns a deep copy. Only aggregates are copied; other values are
// immutable.
func (v Value) Clone() Value {
	if !v.IsAggregate() {
		return v
	}
	src := v.Elems()
	elems := make([]Value, len(src))
	for i, e := range src {
		elems[i] = e.Clone()
	}
	return Value{Type: v.Type, Obj: &Aggregate{Elems: elems}}
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValVoid:
		return true
	case ValInt, ValBool:
		return v.Data == other.Data
	case ValFloat:
		return v.AsFloat() == other.AsFloat()
	case ValString:
		return v.AsString() == other.AsString()
	case ValPointer:
		return pointersEqual(v.Obj, other.Obj)
	case ValObject, ValArray:
		a, b := v.Elems(), other.Elems()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// pointersEqual compares host pointers. Values of uncomparable dynamic
// types are never equal.
func pointersEqual(a, b interface{}) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Inspect returns string representation
func (v Value) Inspect() string {
	switch v.Type {
	case ValVoid:
		return "void"
	case ValInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case ValFloat:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case ValBool:
		return strconv.FormatBool(v.AsBool())
	case ValString:
		return strconv.Quote(v.AsString())
	case ValPointer:
		if v.Obj == nil {
			return "null"
		}
		return fmt.Sprintf("ptr(%v)", v.Obj)
	case ValObject, ValArray:
		parts := make([]string, len(v.Elems()))
		for i, e := range v.Elems() {
			parts[i] = e.Inspect()
		}
		if v.Type == ValObject {
			return "{" + strings.Join(parts, ", ") + "}"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<?>"
}

func (v Value) String() string {
	return v.Inspect()
}
