package symbols

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/typesystem"
)

type SymbolKind int

type ScopeType int

const (
	ScopePrelude ScopeType = iota // Built-in types and functions
	ScopeGlobal                   // User code top-level
	ScopeFunction
	ScopeBlock
)

const (
	VariableSymbol SymbolKind = iota // global, parameter or local
	FunctionSymbol
	NativeSymbol  // host function declared by prototype
	BuiltinSymbol // len, append
	TypeSymbol    // primitive, struct or enum
	EnumMemberSymbol
	FieldSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case VariableSymbol:
		return "variable"
	case FunctionSymbol:
		return "function"
	case NativeSymbol:
		return "native function"
	case BuiltinSymbol:
		return "built-in"
	case TypeSymbol:
		return "type"
	case EnumMemberSymbol:
		return "enum member"
	case FieldSymbol:
		return "field"
	}
	return "symbol"
}

type Symbol struct {
	Name string
	Type typesystem.Type
	Kind SymbolKind

	// Index is the global slot, function index, native index or field
	// index depending on Kind. Locals are slotted by the compiler.
	Index    int
	IsGlobal bool

	// Value is the backing integer of an enum member.
	Value int64

	DefinitionNode ast.Node
}

// registry holds the program-wide definitions shared by all scopes.
type registry struct {
	structs   map[string]*typesystem.StructDef
	enums     map[string]*typesystem.EnumDef
	functions []*typesystem.Signature
	natives   []*typesystem.Signature
	globals   []Symbol
}

type SymbolTable struct {
	store     map[string]Symbol
	outer     *SymbolTable
	scopeType ScopeType
	reg       *registry
}

// NewSymbolTable returns the global scope on top of the prelude.
func NewSymbolTable() *SymbolTable {
	prelude := &SymbolTable{
		store:     make(map[string]Symbol),
		scopeType: ScopePrelude,
		reg: &registry{
			structs: make(map[string]*typesystem.StructDef),
			enums:   make(map[string]*typesystem.EnumDef),
		},
	}
	for name, t := range typesystem.Primitives {
		prelude.store[name] = Symbol{Name: name, Type: t, Kind: TypeSymbol}
	}
	prelude.store[config.LenFuncName] = Symbol{Name: config.LenFuncName, Kind: BuiltinSymbol}
	prelude.store[config.AppendFuncName] = Symbol{Name: config.AppendFuncName, Kind: BuiltinSymbol}
	return NewEnclosedSymbolTable(prelude, ScopeGlobal)
}

func NewEnclosedSymbolTable(outer *SymbolTable, scopeType ScopeType) *SymbolTable {
	return &SymbolTable{
		store:     make(map[string]Symbol),
		outer:     outer,
		scopeType: scopeType,
		reg:       outer.reg,
	}
}

func (s *SymbolTable) Outer() *SymbolTable   { return s.outer }
func (s *SymbolTable) ScopeType() ScopeType { return s.scopeType }
func (s *SymbolTable) IsGlobalScope() bool  { return s.scopeType == ScopeGlobal }

// Define adds sym to the current scope, replacing any entry of the same name.
func (s *SymbolTable) Define(sym Symbol) Symbol {
	s.store[sym.Name] = sym
	return sym
}

// Find looks name up through the enclosing scopes.
func (s *SymbolTable) Find(name string) (Symbol, bool) {
	for scope := s; scope != nil; scope = scope.outer {
		if sym, ok := scope.store[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

func (s *SymbolTable) FindInCurrentScope(name string) (Symbol, bool) {
	sym, ok := s.store[name]
	return sym, ok
}

// IsPrelude reports whether name is a built-in type or function.
func (s *SymbolTable) IsPrelude(name string) bool {
	scope := s
	for scope.outer != nil {
		scope = scope.outer
	}
	_, ok := scope.store[name]
	return ok
}

// Lookup is Find returning a SymbolNotFoundError.
func (s *SymbolTable) Lookup(name string) (Symbol, error) {
	if sym, ok := s.Find(name); ok {
		return sym, nil
	}
	return Symbol{}, typesystem.NewSymbolNotFoundError(name)
}
