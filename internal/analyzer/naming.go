package analyzer

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

// collectNames defines every top-level name so later passes can refer to
// declarations regardless of order. Natives are declared first.
func (w *walker) collectNames(program *ast.Program, natives []*ast.FunctionDeclaration) {
	for _, fd := range natives {
		if !w.declareGlobalName(fd.Name) {
			continue
		}
		sig := &typesystem.Signature{Name: fd.Name.Value}
		w.signatures[fd] = sig
		sym := symbols.Symbol{Name: sig.Name, Kind: symbols.NativeSymbol, Index: w.symbolTable.AddNative(sig), DefinitionNode: fd}
		w.symbolTable.Define(sym)
		w.ResolutionMap[fd] = sym
	}

	for _, decl := range program.Declarations {
		switch d := decl.(type) {
		case *ast.StructDeclaration:
			if !w.declareGlobalName(d.Name) {
				continue
			}
			w.symbolTable.Define(symbols.Symbol{Name: d.Name.Value, Kind: symbols.TypeSymbol, Type: typesystem.TStruct{Name: d.Name.Value}, DefinitionNode: d})
			w.structs = append(w.structs, d)

		case *ast.EnumDeclaration:
			if !w.declareGlobalName(d.Name) {
				continue
			}
			w.symbolTable.Define(symbols.Symbol{Name: d.Name.Value, Kind: symbols.TypeSymbol, Type: typesystem.TEnum{Name: d.Name.Value}, DefinitionNode: d})
			w.enums = append(w.enums, d)

		case *ast.FunctionDeclaration:
			if !w.declareGlobalName(d.Name) {
				continue
			}
			sig := &typesystem.Signature{Name: d.Name.Value}
			w.signatures[d] = sig
			sym := symbols.Symbol{Name: sig.Name, Kind: symbols.FunctionSymbol, Index: w.symbolTable.AddFunction(sig), DefinitionNode: d}
			w.symbolTable.Define(sym)
			w.ResolutionMap[d] = sym
			w.functions = append(w.functions, d)

		case *ast.VarDeclaration:
			if !w.declareGlobalName(d.Name) {
				continue
			}
			sym := w.symbolTable.AddGlobal(symbols.Symbol{Name: d.Name.Value, Kind: symbols.VariableSymbol, DefinitionNode: d})
			w.symbolTable.Define(sym)
			w.ResolutionMap[d] = sym
			w.globals = append(w.globals, d)
		}
	}
}

// declareGlobalName reports A002 when name is taken by a built-in or an
// earlier top-level declaration.
func (w *walker) declareGlobalName(name *ast.Identifier) bool {
	if w.symbolTable.IsPrelude(name.Value) {
		w.errorf(diagnostics.ErrA002, name.Token, "%s redeclares a built-in name", name.Value)
		return false
	}
	if prev, ok := w.symbolTable.FindInCurrentScope(name.Value); ok {
		pos := definitionToken(prev.DefinitionNode)
		w.errorf(diagnostics.ErrA002, name.Token, "%s is already declared as a %s at %d:%d", name.Value, prev.Kind, pos.Line, pos.Column)
		return false
	}
	return true
}
