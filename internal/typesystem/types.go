package typesystem

import (
	"strings"

	"github.com/funvibe/mscript/internal/config"
)

// Type is the closed set of language types: primitives (TCon), struct and
// enum references by name, arrays and function signatures.
type Type interface {
	String() string
	typeTag() Tag
}

// Tag identifies the variant of a Type.
type Tag uint8

const (
	TagVoid Tag = iota
	TagPointer
	TagInt
	TagFloat
	TagBool
	TagString
	TagStruct
	TagEnum
	TagArray
	TagFunc
)

// TCon is a primitive type.
type TCon struct {
	Name string
}

func (t TCon) String() string { return t.Name }

func (t TCon) typeTag() Tag {
	switch t.Name {
	case config.PointerTypeName:
		return TagPointer
	case config.IntTypeName:
		return TagInt
	case config.FloatTypeName:
		return TagFloat
	case config.BoolTypeName:
		return TagBool
	case config.StringTypeName:
		return TagString
	}
	return TagVoid
}

// TStruct names a struct; its layout lives in the StructDef.
type TStruct struct {
	Name string
}

func (t TStruct) String() string { return t.Name }
func (t TStruct) typeTag() Tag   { return TagStruct }

// TEnum names an enum; values are its backing integers.
type TEnum struct {
	Name string
}

func (t TEnum) String() string { return t.Name }
func (t TEnum) typeTag() Tag   { return TagEnum }

// TArray is a variable-length array of Elem.
type TArray struct {
	Elem Type
}

func (t TArray) String() string { return t.Elem.String() + "[]" }
func (t TArray) typeTag() Tag   { return TagArray }

// TFunc is a function signature. It is never the type of a value.
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + t.ReturnType.String()
}

func (t TFunc) typeTag() Tag { return TagFunc }

var (
	Void    Type = TCon{Name: config.VoidTypeName}
	Pointer Type = TCon{Name: config.PointerTypeName}
	Int     Type = TCon{Name: config.IntTypeName}
	Float   Type = TCon{Name: config.FloatTypeName}
	Bool    Type = TCon{Name: config.BoolTypeName}
	String  Type = TCon{Name: config.StringTypeName}
)

// Primitives lists the built-in types by name.
var Primitives = map[string]Type{
	config.VoidTypeName:    Void,
	config.PointerTypeName: Pointer,
	config.IntTypeName:     Int,
	config.FloatTypeName:   Float,
	config.BoolTypeName:    Bool,
	config.StringTypeName:  String,
}

// TagOf returns the variant tag of t. A nil type is void.
func TagOf(t Type) Tag {
	if t == nil {
		return TagVoid
	}
	return t.typeTag()
}

// Equal reports whether two types have the same tag and nested fields.
// There is no widening: int and float are never equal.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch ta := a.(type) {
	case TCon:
		tb, ok := b.(TCon)
		return ok && ta.Name == tb.Name
	case TStruct:
		tb, ok := b.(TStruct)
		return ok && ta.Name == tb.Name
	case TEnum:
		tb, ok := b.(TEnum)
		return ok && ta.Name == tb.Name
	case TArray:
		tb, ok := b.(TArray)
		return ok && Equal(ta.Elem, tb.Elem)
	case TFunc:
		tb, ok := b.(TFunc)
		if !ok || len(ta.Params) != len(tb.Params) || !Equal(ta.ReturnType, tb.ReturnType) {
			return false
		}
		for i := range ta.Params {
			if !Equal(ta.Params[i], tb.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func IsVoid(t Type) bool    { return TagOf(t) == TagVoid }
func IsNumeric(t Type) bool { tag := TagOf(t); return tag == TagInt || tag == TagFloat }

// IsComparable reports whether == and != are defined for t.
func IsComparable(t Type) bool {
	switch TagOf(t) {
	case TagInt, TagFloat, TagBool, TagString, TagEnum, TagPointer:
		return true
	}
	return false
}

// IsOrdered reports whether < <= > >= are defined for t.
func IsOrdered(t Type) bool {
	switch TagOf(t) {
	case TagInt, TagFloat, TagString:
		return true
	}
	return false
}

// ElementType returns the element type of an array, or nil.
func ElementType(t Type) Type {
	if arr, ok := t.(TArray); ok {
		return arr.Elem
	}
	return nil
}
