package symbols

import (
	"errors"
	"testing"

	"github.com/funvibe/mscript/internal/typesystem"
)

func TestPreludeAndScopes(t *testing.T) {
	global := NewSymbolTable()
	if !global.IsGlobalScope() {
		t.Fatalf("NewSymbolTable must return the global scope")
	}
	if sym, ok := global.Find("int"); !ok || sym.Kind != TypeSymbol || !typesystem.Equal(sym.Type, typesystem.Int) {
		t.Errorf("int must resolve to the primitive type, got %+v", sym)
	}
	if sym, ok := global.Find("len"); !ok || sym.Kind != BuiltinSymbol {
		t.Errorf("len must be a built-in, got %+v", sym)
	}
	if !global.IsPrelude("append") || global.IsPrelude("main") {
		t.Errorf("unexpected prelude membership")
	}

	counter := global.AddGlobal(Symbol{Name: "counter", Type: typesystem.Int, Kind: VariableSymbol})
	global.Define(counter)
	fn := NewEnclosedSymbolTable(global, ScopeFunction)
	block := NewEnclosedSymbolTable(fn, ScopeBlock)
	block.Define(Symbol{Name: "counter", Type: typesystem.Float, Kind: VariableSymbol})

	if sym, _ := block.Find("counter"); sym.IsGlobal {
		t.Errorf("inner definition must shadow the global")
	}
	if sym, _ := fn.Find("counter"); !sym.IsGlobal || sym.Index != 0 {
		t.Errorf("function scope must see the global, got %+v", sym)
	}
	if _, ok := fn.FindInCurrentScope("counter"); ok {
		t.Errorf("global must not be in the function's own scope")
	}

	_, err := block.Lookup("missing")
	var notFound *typesystem.SymbolNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "missing" {
		t.Errorf("expected SymbolNotFoundError, got %v", err)
	}
}

func TestRegistryIsShared(t *testing.T) {
	global := NewSymbolTable()
	inner := NewEnclosedSymbolTable(global, ScopeFunction)
	inner.DefineStruct(&typesystem.StructDef{Name: "P"})
	if _, ok := global.GetStruct("P"); !ok {
		t.Errorf("struct definitions must be program-wide")
	}
	if i := global.AddFunction(&typesystem.Signature{Name: "a"}); i != 0 {
		t.Errorf("first function index = %d", i)
	}
	if i := inner.AddFunction(&typesystem.Signature{Name: "b"}); i != 1 {
		t.Errorf("second function index = %d", i)
	}
	if i := global.AddNative(&typesystem.Signature{Name: "host"}); i != 0 {
		t.Errorf("natives are indexed separately, got %d", i)
	}
	g := global.AddGlobal(Symbol{Name: "x"})
	global.SetGlobalType(g.Index, typesystem.Bool)
	if !typesystem.Equal(global.Globals()[0].Type, typesystem.Bool) {
		t.Errorf("SetGlobalType did not stick")
	}
}
