package analyzer

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

// valueExpr types an expression whose result is used as a value. Void
// results are reported as A014.
func (w *walker) valueExpr(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	t := w.inferExpr(expr, expected)
	if t != nil && typesystem.IsVoid(t) {
		w.errorf(diagnostics.ErrA014, expr.GetToken(), "void value used as a value")
		return nil
	}
	return t
}

// inferExpr computes and records the type of expr. expected is a hint used
// only to type empty array literals. A nil result means an error has
// already been reported for this expression.
func (w *walker) inferExpr(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	t := w.infer(expr, expected)
	if t != nil {
		w.TypeMap[expr] = t
	}
	return t
}

func (w *walker) infer(expr ast.Expression, expected typesystem.Type) typesystem.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return typesystem.Int
	case *ast.FloatLiteral:
		return typesystem.Float
	case *ast.StringLiteral:
		return typesystem.String
	case *ast.BooleanLiteral:
		return typesystem.Bool
	case *ast.Identifier:
		return w.inferIdentifier(e)
	case *ast.PrefixExpression:
		return w.inferPrefix(e)
	case *ast.InfixExpression:
		return w.inferInfix(e)
	case *ast.CallExpression:
		return w.inferCall(e, expected)
	case *ast.MemberExpression:
		return w.inferMember(e)
	case *ast.IndexExpression:
		return w.inferIndex(e)
	case *ast.StructLiteral:
		return w.inferStructLiteral(e)
	case *ast.ArrayLiteral:
		return w.inferArrayLiteral(e, expected)
	}
	return nil
}

func (w *walker) inferIdentifier(id *ast.Identifier) typesystem.Type {
	sym, ok := w.symbolTable.Find(id.Value)
	if !ok {
		w.errorf(diagnostics.ErrA001, id.Token, "undefined: %s", id.Value)
		return nil
	}
	if sym.Kind != symbols.VariableSymbol {
		w.errorf(diagnostics.ErrA003, id.Token, "%s %s cannot be used as a value", sym.Kind, id.Value)
		return nil
	}
	w.ResolutionMap[id] = sym
	return sym.Type
}

func (w *walker) inferPrefix(pe *ast.PrefixExpression) typesystem.Type {
	right := w.valueExpr(pe.Right, nil)
	if right == nil {
		return nil
	}
	switch pe.Operator {
	case "-":
		if typesystem.IsNumeric(right) {
			return right
		}
	case "!":
		if typesystem.Equal(right, typesystem.Bool) {
			return typesystem.Bool
		}
	}
	w.errorf(diagnostics.ErrA008, pe.Token, "operator %s is not defined for %s", pe.Operator, typeName(right))
	return nil
}

func (w *walker) inferInfix(ie *ast.InfixExpression) typesystem.Type {
	left := w.valueExpr(ie.Left, nil)
	right := w.valueExpr(ie.Right, left)
	if left == nil || right == nil {
		return nil
	}

	mismatch := func() typesystem.Type {
		w.errorf(diagnostics.ErrA008, ie.Token, "operator %s is not defined for %s and %s", ie.Operator, typeName(left), typeName(right))
		return nil
	}
	if !typesystem.Equal(left, right) {
		return mismatch()
	}

	switch ie.Operator {
	case "&&", "||":
		if typesystem.Equal(left, typesystem.Bool) {
			return typesystem.Bool
		}
	case "+":
		if typesystem.IsNumeric(left) || typesystem.Equal(left, typesystem.String) {
			return left
		}
	case "-", "*", "/":
		if typesystem.IsNumeric(left) {
			return left
		}
	case "%":
		if typesystem.Equal(left, typesystem.Int) {
			return left
		}
	case "==", "!=":
		if typesystem.IsComparable(left) {
			return typesystem.Bool
		}
	case "<", "<=", ">", ">=":
		if typesystem.IsOrdered(left) {
			return typesystem.Bool
		}
	}
	return mismatch()
}

func (w *walker) inferMember(me *ast.MemberExpression) typesystem.Type {
	// Color.Red: the left side names an enum type.
	if ident, ok := me.Left.(*ast.Identifier); ok {
		if sym, found := w.symbolTable.Find(ident.Value); found && sym.Kind == symbols.TypeSymbol {
			enumType, isEnum := sym.Type.(typesystem.TEnum)
			if !isEnum {
				w.errorf(diagnostics.ErrA003, ident.Token, "type %s cannot be used as a value", ident.Value)
				return nil
			}
			def, _ := w.symbolTable.GetEnum(enumType.Name)
			member, ok := def.Lookup(me.Member.Value)
			if !ok {
				w.errorf(diagnostics.ErrA012, me.Member.Token, "enum %s has no member %s", enumType.Name, me.Member.Value)
				return nil
			}
			w.ResolutionMap[me] = symbols.Symbol{Name: member.Name, Type: enumType, Kind: symbols.EnumMemberSymbol, Value: member.Value}
			return enumType
		}
	}

	left := w.valueExpr(me.Left, nil)
	if left == nil {
		return nil
	}
	st, ok := left.(typesystem.TStruct)
	if !ok {
		w.errorf(diagnostics.ErrA008, me.Token, "%s has no members", typeName(left))
		return nil
	}
	def, _ := w.symbolTable.GetStruct(st.Name)
	index, ok := def.FieldIndex(me.Member.Value)
	if !ok {
		w.errorf(diagnostics.ErrA012, me.Member.Token, "struct %s has no member %s", st.Name, me.Member.Value)
		return nil
	}
	field := def.Fields[index]
	w.ResolutionMap[me] = symbols.Symbol{Name: field.Name, Type: field.Type, Kind: symbols.FieldSymbol, Index: index}
	return field.Type
}

func (w *walker) inferIndex(ie *ast.IndexExpression) typesystem.Type {
	left := w.valueExpr(ie.Left, nil)
	index := w.valueExpr(ie.Index, typesystem.Int)
	if index != nil && !typesystem.Equal(index, typesystem.Int) {
		w.errorf(diagnostics.ErrA003, ie.Index.GetToken(), "array index must be int, got %s", typeName(index))
	}
	if left == nil {
		return nil
	}
	elem := typesystem.ElementType(left)
	if elem == nil {
		w.errorf(diagnostics.ErrA008, ie.Token, "cannot index %s", typeName(left))
		return nil
	}
	return elem
}

func (w *walker) inferStructLiteral(sl *ast.StructLiteral) typesystem.Type {
	sym, ok := w.symbolTable.Find(sl.Name.Value)
	st, isStruct := sym.Type.(typesystem.TStruct)
	if !ok || sym.Kind != symbols.TypeSymbol || !isStruct {
		w.errorf(diagnostics.ErrA004, sl.Name.Token, "unknown struct %s", sl.Name.Value)
		for _, f := range sl.Fields {
			w.inferExpr(f.Value, nil)
		}
		return nil
	}
	def, _ := w.symbolTable.GetStruct(st.Name)

	seen := make(map[string]bool)
	for _, f := range sl.Fields {
		index, ok := def.FieldIndex(f.Name.Value)
		if !ok {
			w.errorf(diagnostics.ErrA012, f.Name.Token, "struct %s has no member %s", st.Name, f.Name.Value)
			w.inferExpr(f.Value, nil)
			continue
		}
		if seen[f.Name.Value] {
			w.errorf(diagnostics.ErrA013, f.Name.Token, "member %s is initialized twice", f.Name.Value)
		}
		seen[f.Name.Value] = true

		want := def.Fields[index].Type
		w.ResolutionMap[f.Name] = symbols.Symbol{Name: f.Name.Value, Type: want, Kind: symbols.FieldSymbol, Index: index}
		got := w.valueExpr(f.Value, want)
		if got != nil && !typesystem.Equal(want, got) {
			w.errorf(diagnostics.ErrA003, f.Value.GetToken(), "member %s.%s is %s, got %s", st.Name, f.Name.Value, typeName(want), typeName(got))
		}
	}
	return st
}

func (w *walker) inferArrayLiteral(al *ast.ArrayLiteral, expected typesystem.Type) typesystem.Type {
	if len(al.Elements) == 0 {
		if _, ok := expected.(typesystem.TArray); ok {
			return expected
		}
		w.errorf(diagnostics.ErrA003, al.Token, "cannot infer the type of an empty array literal")
		return nil
	}

	elemHint := typesystem.ElementType(expected)
	first := w.valueExpr(al.Elements[0], elemHint)
	ok := first != nil
	for _, el := range al.Elements[1:] {
		t := w.valueExpr(el, first)
		if t == nil {
			ok = false
			continue
		}
		if first != nil && !typesystem.Equal(first, t) {
			w.errorf(diagnostics.ErrA003, el.GetToken(), "array element must be %s, got %s", typeName(first), typeName(t))
			ok = false
		}
	}
	if !ok {
		return nil
	}
	return typesystem.TArray{Elem: first}
}
