package vm

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/mscript/internal/typesystem"
)

// NativeFunc implements a host capability declared with a prototype.
// The callee owns args. The result must match the declared return type;
// void natives return VoidVal().
type NativeFunc func(ctx context.Context, args []Value) (Value, error)

// Function is one compiled script function.
type Function struct {
	Name       string
	Params     []typesystem.Param
	ReturnType typesystem.Type
	LocalCount int // Parameters plus the widest set of simultaneously live locals
	Chunk      *Chunk
}

func (f *Function) Arity() int { return len(f.Params) }

// Native is a host function referenced by index from CALL_NATIVE.
type Native struct {
	Signature *typesystem.Signature
	Fn        NativeFunc
}

// Global is one slot of the program's global storage.
type Global struct {
	Name string
	Type typesystem.Type
}

// Program is the immutable compiled artifact of one script. It is safe to
// share between goroutines and VMs; nothing in it may be modified after
// compilation.
type Program struct {
	ID        uuid.UUID
	Name      string
	Structs   []*typesystem.StructDef
	Enums     []*typesystem.EnumDef
	Functions []*Function
	Natives   []Native
	Globals   []Global

	// Constants is the program-wide pool of int, float and string literals.
	Constants []Value

	// Types is the operand table of OP_ZERO.
	Types []typesystem.Type

	// Init assigns the global initializers. It is not callable by name.
	Init *Function

	functionIndex map[string]int
	globalIndex   map[string]int
	structIndex   map[string]*typesystem.StructDef
	enumIndex     map[string]*typesystem.EnumDef
}

// buildIndex prepares the name lookups. It runs once, before the program
// is published.
func (p *Program) buildIndex() {
	p.functionIndex = make(map[string]int, len(p.Functions))
	for i, fn := range p.Functions {
		p.functionIndex[fn.Name] = i
	}
	p.globalIndex = make(map[string]int, len(p.Globals))
	for i, g := range p.Globals {
		p.globalIndex[g.Name] = i
	}
	p.structIndex = make(map[string]*typesystem.StructDef, len(p.Structs))
	for _, s := range p.Structs {
		p.structIndex[s.Name] = s
	}
	p.enumIndex = make(map[string]*typesystem.EnumDef, len(p.Enums))
	for _, e := range p.Enums {
		p.enumIndex[e.Name] = e
	}
}

// Function looks up a script function by name.
func (p *Program) Function(name string) (*Function, bool) {
	i, ok := p.functionIndex[name]
	if !ok {
		return nil, false
	}
	return p.Functions[i], true
}

func (p *Program) GlobalIndex(name string) (int, bool) {
	i, ok := p.globalIndex[name]
	return i, ok
}

func (p *Program) Struct(name string) (*typesystem.StructDef, bool) {
	s, ok := p.structIndex[name]
	return s, ok
}

func (p *Program) Enum(name string) (*typesystem.EnumDef, bool) {
	e, ok := p.enumIndex[name]
	return e, ok
}

// ZeroValue returns the default value of t: 0, 0.0, false, "", the null
// pointer, the first member of an enum, an empty array, or an object whose
// members are zero values.
func (p *Program) ZeroValue(t typesystem.Type) Value {
	switch tt := t.(type) {
	case typesystem.TStruct:
		def, _ := p.Struct(tt.Name)
		var fields []Value
		if def != nil {
			fields = make([]Value, len(def.Fields))
			for i, f := range def.Fields {
				fields[i] = p.ZeroValue(f.Type)
			}
		}
		return ObjectVal(fields...)
	case typesystem.TEnum:
		if def, ok := p.Enum(tt.Name); ok && len(def.Members) > 0 {
			return IntVal(def.Members[0].Value)
		}
		return IntVal(0)
	case typesystem.TArray:
		return ArrayVal()
	}
	switch typesystem.TagOf(t) {
	case typesystem.TagInt:
		return IntVal(0)
	case typesystem.TagFloat:
		return FloatVal(0)
	case typesystem.TagBool:
		return BoolVal(false)
	case typesystem.TagString:
		return StringVal("")
	case typesystem.TagPointer:
		return PointerVal(nil)
	}
	return VoidVal()
}

// valueTypeOf maps a language type to its run-time representation.
var valueTypeOf = map[typesystem.Tag]ValueType{
	typesystem.TagInt:     ValInt,
	typesystem.TagFloat:   ValFloat,
	typesystem.TagBool:    ValBool,
	typesystem.TagString:  ValString,
	typesystem.TagPointer: ValPointer,
	typesystem.TagEnum:    ValInt,
	typesystem.TagStruct:  ValObject,
	typesystem.TagArray:   ValArray,
}

// Conforms checks that v has the shape and type t describes, recursively.
// Host-supplied values are untrusted, so every run re-validates them.
func (p *Program) Conforms(v Value, t typesystem.Type) error {
	tag := typesystem.TagOf(t)
	want, ok := valueTypeOf[tag]
	if !ok {
		return fmt.Errorf("%s is not a value type", t)
	}
	if v.Type != want {
		return fmt.Errorf("expected %s, got %s", t, v.Type)
	}
	switch v.Type {
	case ValBool:
		if v.Data > 1 {
			return fmt.Errorf("malformed bool (payload %d)", v.Data)
		}
	case ValString:
		if _, ok := v.Obj.(string); !ok {
			return fmt.Errorf("malformed string (holds %T)", v.Obj)
		}
	case ValObject, ValArray:
		if agg, ok := v.Obj.(*Aggregate); !ok || agg == nil {
			return fmt.Errorf("malformed %s (holds %T)", v.Type, v.Obj)
		}
	}

	switch tt := t.(type) {
	case typesystem.TEnum:
		def, ok := p.Enum(tt.Name)
		if !ok || !def.Has(v.AsInt()) {
			return fmt.Errorf("%d is not a member of enum %s", v.AsInt(), tt.Name)
		}
	case typesystem.TStruct:
		def, ok := p.Struct(tt.Name)
		if !ok {
			return fmt.Errorf("unknown struct %s", tt.Name)
		}
		fields := v.Elems()
		if len(fields) != len(def.Fields) {
			return fmt.Errorf("%s has %d members, got an object with %d", tt.Name, len(def.Fields), len(fields))
		}
		for i, f := range def.Fields {
			if err := p.Conforms(fields[i], f.Type); err != nil {
				return fmt.Errorf("member %s.%s: %w", tt.Name, f.Name, err)
			}
		}
	case typesystem.TArray:
		for i, e := range v.Elems() {
			if err := p.Conforms(e, tt.Elem); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	}
	return nil
}

func (p *Program) String() string {
	return fmt.Sprintf("program %s (%s)", p.Name, p.ID)
}

// returnsVoid reports whether fn produces no value.
func returnsVoid(t typesystem.Type) bool {
	return typesystem.IsVoid(t)
}
