package vm

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/typesystem"
)

func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		c.compileLocalVar(s)
	case *ast.AssignStatement:
		c.compileAssign(s)
	case *ast.ExpressionStatement:
		c.compileExpression(s.Expression)
		if !typesystem.IsVoid(c.typeOf(s.Expression, s.Token)) {
			c.emit(OP_POP, s.Token)
		}
	case *ast.BlockStatement:
		c.compileBlock(s)
	case *ast.IfStatement:
		c.compileIf(s)
	case *ast.WhileStatement:
		c.compileWhile(s)
	case *ast.ForStatement:
		c.compileFor(s)
	case *ast.ReturnStatement:
		if s.Value != nil {
			c.compileExpression(s.Value)
			c.emit(OP_RETURN, s.Token)
		} else {
			c.emit(OP_RETURN_VOID, s.Token)
		}
	case *ast.BreakStatement:
		c.compileBreak(s)
	case *ast.ContinueStatement:
		c.compileContinue(s)
	default:
		c.fail(stmt.GetToken(), "unexpected statement %T", stmt)
	}
}

func (c *Compiler) compileBlock(block *ast.BlockStatement) {
	c.beginScope()
	for _, stmt := range block.Statements {
		c.compileStatement(stmt)
	}
	c.endScope()
}

// compileLocalVar initializes the variable before declaring it, so the
// initializer still sees any outer variable of the same name.
func (c *Compiler) compileLocalVar(vd *ast.VarDeclaration) {
	if vd.Value != nil {
		c.compileExpression(vd.Value)
	} else {
		c.emitZero(c.typeOf(vd, vd.Name.Token), vd.Name.Token)
	}
	slot := c.addLocal(vd.Name.Value, vd.Name.Token)
	c.emitU16Op(OP_SET_LOCAL, slot, vd.Name.Token)
}

func (c *Compiler) compileAssign(as *ast.AssignStatement) {
	if ident, ok := as.Target.(*ast.Identifier); ok {
		c.compileExpression(as.Value)
		c.storeVariable(ident, OP_SET_GLOBAL, OP_SET_LOCAL)
		return
	}

	// a.b[i].c = v: push the dynamic indices root to leaf, then the value,
	// then store through the recorded path.
	root, steps := c.lvaluePath(as.Target)
	if len(steps) > 0xff {
		c.fail(as.Token, "assignment path too deep")
	}
	path := make([]byte, len(steps))
	for i, step := range steps {
		switch s := step.(type) {
		case *ast.MemberExpression:
			path[i] = byte(c.symbolOf(s, s.Member.Token).Index)
		case *ast.IndexExpression:
			path[i] = pathIndexStep
			c.compileExpression(s.Index)
		}
	}
	c.compileExpression(as.Value)
	c.storeVariable(root, OP_STORE_GLOBAL_PATH, OP_STORE_LOCAL_PATH)
	c.emitByte(byte(len(path)), as.Token)
	for _, b := range path {
		c.emitByte(b, as.Token)
	}
}

// lvaluePath splits an assignment target into its root variable and the
// member and index steps leading from it, root first.
func (c *Compiler) lvaluePath(target ast.Expression) (*ast.Identifier, []ast.Expression) {
	var steps []ast.Expression
	for {
		switch t := target.(type) {
		case *ast.Identifier:
			for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
				steps[i], steps[j] = steps[j], steps[i]
			}
			return t, steps
		case *ast.MemberExpression:
			steps = append(steps, t)
			target = t.Left
		case *ast.IndexExpression:
			steps = append(steps, t)
			target = t.Left
		default:
			c.fail(target.GetToken(), "invalid assignment target")
		}
	}
}

// storeVariable emits globalOp or localOp with the variable's slot.
func (c *Compiler) storeVariable(ident *ast.Identifier, globalOp, localOp Opcode) {
	sym := c.symbolOf(ident, ident.Token)
	if sym.IsGlobal {
		c.emitU16Op(globalOp, sym.Index, ident.Token)
		return
	}
	slot := c.resolveLocal(ident.Value)
	if slot < 0 {
		c.fail(ident.Token, "local %s has no slot", ident.Value)
	}
	c.emitU16Op(localOp, slot, ident.Token)
}

func (c *Compiler) compileIf(is *ast.IfStatement) {
	c.compileExpression(is.Condition)
	elseJump := c.emitJump(OP_JUMP_IF_FALSE, is.Token)
	c.compileBlock(is.Consequence)
	if is.Alternative == nil {
		c.patchJump(elseJump)
		return
	}
	endJump := c.emitJump(OP_JUMP, is.Token)
	c.patchJump(elseJump)
	c.compileStatement(is.Alternative)
	c.patchJump(endJump)
}
