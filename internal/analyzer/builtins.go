package analyzer

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

func (w *walker) inferCall(call *ast.CallExpression, expected typesystem.Type) typesystem.Type {
	name := call.Function.Value
	sym, ok := w.symbolTable.Find(name)
	if !ok {
		w.errorf(diagnostics.ErrA001, call.Function.Token, "undefined function %s", name)
		w.inferArgs(call.Arguments)
		return nil
	}

	switch sym.Kind {
	case symbols.FunctionSymbol, symbols.NativeSymbol:
		w.ResolutionMap[call] = sym
		return w.checkSignatureCall(call, sym)
	case symbols.BuiltinSymbol:
		w.ResolutionMap[call] = sym
		switch name {
		case config.LenFuncName:
			return w.inferLen(call)
		case config.AppendFuncName:
			return w.inferAppend(call, expected)
		}
	case symbols.TypeSymbol:
		if typesystem.Equal(sym.Type, typesystem.Int) || typesystem.Equal(sym.Type, typesystem.Float) {
			w.ResolutionMap[call] = symbols.Symbol{Name: name, Type: sym.Type, Kind: symbols.BuiltinSymbol}
			return w.inferCast(call, sym.Type)
		}
		w.errorf(diagnostics.ErrA008, call.Function.Token, "there is no conversion to %s", name)
		w.inferArgs(call.Arguments)
		return nil
	}

	w.errorf(diagnostics.ErrA003, call.Function.Token, "%s is a %s, not a function", name, sym.Kind)
	w.inferArgs(call.Arguments)
	return nil
}

func (w *walker) inferArgs(args []ast.Expression) {
	for _, arg := range args {
		w.inferExpr(arg, nil)
	}
}

// checkArity reports A006 unless call has exactly want arguments.
func (w *walker) checkArity(call *ast.CallExpression, want int) bool {
	if len(call.Arguments) == want {
		return true
	}
	w.errorf(diagnostics.ErrA006, call.Token, "%s expects %d argument(s), got %d", call.Function.Value, want, len(call.Arguments))
	w.inferArgs(call.Arguments)
	return false
}

func (w *walker) checkSignatureCall(call *ast.CallExpression, sym symbols.Symbol) typesystem.Type {
	fn, ok := sym.Type.(typesystem.TFunc)
	if !ok {
		w.inferArgs(call.Arguments)
		return nil
	}
	if !w.checkArity(call, len(fn.Params)) {
		return fn.ReturnType
	}
	for i, arg := range call.Arguments {
		want := fn.Params[i]
		got := w.valueExpr(arg, want)
		if want != nil && got != nil && !typesystem.Equal(want, got) {
			w.errorf(diagnostics.ErrA003, arg.GetToken(), "argument %d of %s must be %s, got %s", i+1, call.Function.Value, typeName(want), typeName(got))
		}
	}
	return fn.ReturnType
}

// len(array | string) -> int
func (w *walker) inferLen(call *ast.CallExpression) typesystem.Type {
	if !w.checkArity(call, 1) {
		return typesystem.Int
	}
	t := w.valueExpr(call.Arguments[0], nil)
	if t != nil && typesystem.ElementType(t) == nil && !typesystem.Equal(t, typesystem.String) {
		w.errorf(diagnostics.ErrA003, call.Arguments[0].GetToken(), "len expects an array or a string, got %s", typeName(t))
	}
	return typesystem.Int
}

// append(T[], T) -> T[]
func (w *walker) inferAppend(call *ast.CallExpression, expected typesystem.Type) typesystem.Type {
	if !w.checkArity(call, 2) {
		return nil
	}
	var arr typesystem.Type
	if lit, ok := call.Arguments[0].(*ast.ArrayLiteral); ok && len(lit.Elements) == 0 {
		if _, isArray := expected.(typesystem.TArray); !isArray {
			// append([], v) takes its type from v.
			if elem := w.valueExpr(call.Arguments[1], nil); elem != nil {
				return w.inferExpr(call.Arguments[0], typesystem.TArray{Elem: elem})
			}
			return nil
		}
	}

	arr = w.valueExpr(call.Arguments[0], expected)
	elem := typesystem.ElementType(arr)
	if arr != nil && elem == nil {
		w.errorf(diagnostics.ErrA003, call.Arguments[0].GetToken(), "append expects an array, got %s", typeName(arr))
	}
	got := w.valueExpr(call.Arguments[1], elem)
	if elem != nil && got != nil && !typesystem.Equal(elem, got) {
		w.errorf(diagnostics.ErrA003, call.Arguments[1].GetToken(), "cannot append %s to %s", typeName(got), typeName(arr))
	}
	if elem == nil {
		return nil
	}
	return arr
}

// int(int | float | bool | enum), float(int | float)
func (w *walker) inferCast(call *ast.CallExpression, target typesystem.Type) typesystem.Type {
	if !w.checkArity(call, 1) {
		return target
	}
	from := w.valueExpr(call.Arguments[0], nil)
	if from == nil {
		return target
	}
	allowed := typesystem.IsNumeric(from)
	if typesystem.Equal(target, typesystem.Int) {
		allowed = allowed || typesystem.Equal(from, typesystem.Bool) || typesystem.TagOf(from) == typesystem.TagEnum
	}
	if !allowed {
		w.errorf(diagnostics.ErrA008, call.Token, "cannot convert %s to %s", typeName(from), typeName(target))
	}
	return target
}
