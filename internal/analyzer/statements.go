package analyzer

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

func (w *walker) analyzeBodies(program *ast.Program) {
	global := w.symbolTable
	for _, fd := range w.functions {
		sig := w.signatures[fd]
		w.currentFunc = sig
		w.symbolTable = symbols.NewEnclosedSymbolTable(global, symbols.ScopeFunction)

		for i, p := range fd.Parameters {
			if _, dup := w.symbolTable.FindInCurrentScope(p.Name.Value); dup {
				continue
			}
			sym := symbols.Symbol{Name: p.Name.Value, Type: sig.Params[i].Type, Kind: symbols.VariableSymbol, Index: i, DefinitionNode: p.Name}
			if w.symbolTable.IsPrelude(p.Name.Value) {
				w.errorf(diagnostics.ErrA002, p.Name.Token, "parameter %s redeclares a built-in name", p.Name.Value)
			}
			w.symbolTable.Define(sym)
			w.ResolutionMap[p.Name] = sym
		}

		// The body shares the parameters' scope.
		for _, stmt := range fd.Body.Statements {
			w.analyzeStatement(stmt)
		}

		if !typesystem.IsVoid(sig.ReturnType) && !alwaysReturns(fd.Body) {
			w.errorf(diagnostics.ErrA007, fd.Name.Token, "function %s must return a %s on every path", fd.Name.Value, typeName(sig.ReturnType))
		}
	}
	w.symbolTable = global
	w.currentFunc = nil
}

func (w *walker) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		w.analyzeLocalVar(s)
	case *ast.AssignStatement:
		w.analyzeAssign(s)
	case *ast.ExpressionStatement:
		w.inferExpr(s.Expression, nil)
	case *ast.BlockStatement:
		w.withScope(func() {
			for _, inner := range s.Statements {
				w.analyzeStatement(inner)
			}
		})
	case *ast.IfStatement:
		w.checkCondition(s.Condition, "if")
		w.analyzeStatement(s.Consequence)
		if s.Alternative != nil {
			w.analyzeStatement(s.Alternative)
		}
	case *ast.WhileStatement:
		w.checkCondition(s.Condition, "while")
		w.loopDepth++
		w.analyzeStatement(s.Body)
		w.loopDepth--
	case *ast.ForStatement:
		w.withScope(func() {
			if s.Init != nil {
				w.analyzeStatement(s.Init)
			}
			if s.Condition != nil {
				w.checkCondition(s.Condition, "for")
			}
			if s.Post != nil {
				w.analyzeStatement(s.Post)
			}
			w.loopDepth++
			w.analyzeStatement(s.Body)
			w.loopDepth--
		})
	case *ast.ReturnStatement:
		w.analyzeReturn(s)
	case *ast.BreakStatement:
		if w.loopDepth == 0 {
			w.errorf(diagnostics.ErrA010, s.Token, "break outside of a loop")
		}
	case *ast.ContinueStatement:
		if w.loopDepth == 0 {
			w.errorf(diagnostics.ErrA010, s.Token, "continue outside of a loop")
		}
	}
}

func (w *walker) withScope(fn func()) {
	outer := w.symbolTable
	w.symbolTable = symbols.NewEnclosedSymbolTable(outer, symbols.ScopeBlock)
	fn()
	w.symbolTable = outer
}

func (w *walker) checkCondition(cond ast.Expression, what string) {
	t := w.valueExpr(cond, typesystem.Bool)
	if t != nil && !typesystem.Equal(t, typesystem.Bool) {
		w.errorf(diagnostics.ErrA003, cond.GetToken(), "%s condition must be bool, got %s", what, typeName(t))
	}
}

func (w *walker) analyzeLocalVar(vd *ast.VarDeclaration) {
	name := vd.Name.Value
	if w.symbolTable.IsPrelude(name) {
		w.errorf(diagnostics.ErrA002, vd.Name.Token, "%s redeclares a built-in name", name)
	} else if prev, dup := w.symbolTable.FindInCurrentScope(name); dup {
		pos := definitionToken(prev.DefinitionNode)
		w.errorf(diagnostics.ErrA002, vd.Name.Token, "%s is already declared in this scope at %d:%d", name, pos.Line, pos.Column)
	}

	var declared typesystem.Type
	if vd.Type != nil {
		declared = w.resolveValueType(vd.Type, "variable "+name)
	}
	t := declared
	if vd.Value != nil {
		actual := w.valueExpr(vd.Value, declared)
		if vd.Type == nil {
			t = actual
		} else if declared != nil && actual != nil && !typesystem.Equal(declared, actual) {
			w.errorf(diagnostics.ErrA003, vd.Value.GetToken(), "cannot initialize %s of type %s with %s", name, typeName(declared), typeName(actual))
		}
	}

	// The name is visible only after its initializer.
	sym := symbols.Symbol{Name: name, Type: t, Kind: symbols.VariableSymbol, DefinitionNode: vd}
	w.symbolTable.Define(sym)
	w.ResolutionMap[vd] = sym
	if t != nil {
		w.TypeMap[vd] = t
	}
}

func (w *walker) analyzeAssign(as *ast.AssignStatement) {
	switch as.Target.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
	default:
		w.errorf(diagnostics.ErrA009, as.Target.GetToken(), "cannot assign to this expression")
		w.inferExpr(as.Value, nil)
		return
	}

	target := w.inferExpr(as.Target, nil)
	if target != nil && !w.assignable(as.Target) {
		w.errorf(diagnostics.ErrA009, as.Target.GetToken(), "cannot assign to %s", describeTarget(as.Target))
		target = nil
	}
	value := w.valueExpr(as.Value, target)
	if target != nil && value != nil && !typesystem.Equal(target, value) {
		w.errorf(diagnostics.ErrA003, as.Value.GetToken(), "cannot assign %s to %s of type %s", typeName(value), describeTarget(as.Target), typeName(target))
	}
}

// assignable reports whether a resolved expression denotes storage: a
// variable, or a field or element of storage.
func (w *walker) assignable(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.Identifier:
		sym, ok := w.ResolutionMap[e]
		return ok && sym.Kind == symbols.VariableSymbol
	case *ast.MemberExpression:
		sym, ok := w.ResolutionMap[e]
		return ok && sym.Kind == symbols.FieldSymbol && w.assignable(e.Left)
	case *ast.IndexExpression:
		return w.assignable(e.Left)
	}
	return false
}

func describeTarget(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Value
	case *ast.MemberExpression:
		return "member " + e.Member.Value
	case *ast.IndexExpression:
		return "array element"
	}
	return "expression"
}

func (w *walker) analyzeReturn(rs *ast.ReturnStatement) {
	ret := w.currentFunc.ReturnType
	if ret == nil {
		if rs.Value != nil {
			w.inferExpr(rs.Value, nil)
		}
		return
	}
	if typesystem.IsVoid(ret) {
		if rs.Value != nil {
			w.errorf(diagnostics.ErrA003, rs.Value.GetToken(), "function %s returns void but a value is returned", w.currentFunc.Name)
			w.inferExpr(rs.Value, nil)
		}
		return
	}
	if rs.Value == nil {
		w.errorf(diagnostics.ErrA003, rs.Token, "function %s must return a %s", w.currentFunc.Name, typeName(ret))
		return
	}
	actual := w.valueExpr(rs.Value, ret)
	if actual != nil && !typesystem.Equal(ret, actual) {
		w.errorf(diagnostics.ErrA003, rs.Value.GetToken(), "function %s returns %s, got %s", w.currentFunc.Name, typeName(ret), typeName(actual))
	}
}

// alwaysReturns reports whether every control path through stmt ends in
// a return or never leaves an unconditional loop.
func alwaysReturns(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStatement:
		return true
	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			if alwaysReturns(inner) {
				return true
			}
		}
	case *ast.IfStatement:
		return s.Alternative != nil && alwaysReturns(s.Consequence) && alwaysReturns(s.Alternative)
	case *ast.WhileStatement:
		return isTrueLiteral(s.Condition) && !breaksOut(s.Body)
	case *ast.ForStatement:
		return (s.Condition == nil || isTrueLiteral(s.Condition)) && !breaksOut(s.Body)
	}
	return false
}

func isTrueLiteral(expr ast.Expression) bool {
	b, ok := expr.(*ast.BooleanLiteral)
	return ok && b.Value
}

// breaksOut reports whether a break in stmt targets the enclosing loop.
func breaksOut(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.BreakStatement:
		return true
	case *ast.BlockStatement:
		for _, inner := range s.Statements {
			if breaksOut(inner) {
				return true
			}
		}
	case *ast.IfStatement:
		return breaksOut(s.Consequence) || (s.Alternative != nil && breaksOut(s.Alternative))
	}
	return false
}
