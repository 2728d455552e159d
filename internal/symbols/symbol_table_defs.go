package symbols

import (
	"github.com/funvibe/mscript/internal/typesystem"
)

func (s *SymbolTable) DefineStruct(def *typesystem.StructDef) {
	s.reg.structs[def.Name] = def
}

func (s *SymbolTable) GetStruct(name string) (*typesystem.StructDef, bool) {
	def, ok := s.reg.structs[name]
	return def, ok
}

func (s *SymbolTable) DefineEnum(def *typesystem.EnumDef) {
	s.reg.enums[def.Name] = def
}

func (s *SymbolTable) GetEnum(name string) (*typesystem.EnumDef, bool) {
	def, ok := s.reg.enums[name]
	return def, ok
}

// AddFunction registers a script function and returns its index.
func (s *SymbolTable) AddFunction(sig *typesystem.Signature) int {
	s.reg.functions = append(s.reg.functions, sig)
	return len(s.reg.functions) - 1
}

// AddNative registers a host function and returns its index.
func (s *SymbolTable) AddNative(sig *typesystem.Signature) int {
	s.reg.natives = append(s.reg.natives, sig)
	return len(s.reg.natives) - 1
}

// AddGlobal assigns the next global slot to sym.
func (s *SymbolTable) AddGlobal(sym Symbol) Symbol {
	sym.Index = len(s.reg.globals)
	sym.IsGlobal = true
	s.reg.globals = append(s.reg.globals, sym)
	return sym
}

// SetGlobalType records the resolved type of a global slot.
func (s *SymbolTable) SetGlobalType(index int, t typesystem.Type) {
	s.reg.globals[index].Type = t
}

func (s *SymbolTable) Functions() []*typesystem.Signature { return s.reg.functions }
func (s *SymbolTable) Natives() []*typesystem.Signature   { return s.reg.natives }
func (s *SymbolTable) Globals() []Symbol                  { return s.reg.globals }

// Structs returns the struct definitions by name.
func (s *SymbolTable) Structs() map[string]*typesystem.StructDef { return s.reg.structs }
func (s *SymbolTable) Enums() map[string]*typesystem.EnumDef     { return s.reg.enums }
