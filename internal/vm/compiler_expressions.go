package vm

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

var intOps = map[string]Opcode{
	"+": OP_ADD_INT,
	"-": OP_SUB_INT,
	"*": OP_MUL_INT,
	"/": OP_DIV_INT,
	"%": OP_MOD_INT,
}

var floatOps = map[string]Opcode{
	"+": OP_ADD_FLOAT,
	"-": OP_SUB_FLOAT,
	"*": OP_MUL_FLOAT,
	"/": OP_DIV_FLOAT,
}

var comparisons = map[string]byte{
	"==": CMP_EQ,
	"!=": CMP_NE,
	"<":  CMP_LT,
	"<=": CMP_LE,
	">":  CMP_GT,
	">=": CMP_GE,
}

// compileExpression leaves the value of expr on the stack. The value is
// owned: aggregates read from storage are copied.
func (c *Compiler) compileExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emitConstant(IntVal(e.Value), e.Token)
	case *ast.FloatLiteral:
		c.emitConstant(FloatVal(e.Value), e.Token)
	case *ast.StringLiteral:
		c.emitConstant(StringVal(e.Value), e.Token)
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(OP_TRUE, e.Token)
		} else {
			c.emit(OP_FALSE, e.Token)
		}
	case *ast.Identifier:
		c.compileRef(e)
		c.copyAggregate(e)
	case *ast.PrefixExpression:
		c.compilePrefix(e)
	case *ast.InfixExpression:
		c.compileInfix(e)
	case *ast.CallExpression:
		c.compileCall(e)
	case *ast.MemberExpression:
		c.compileRef(e)
		c.copyAggregate(e)
	case *ast.IndexExpression:
		c.compileRef(e)
		c.copyAggregate(e)
	case *ast.StructLiteral:
		c.emitZero(c.typeOf(e, e.Token), e.Token)
		for _, f := range e.Fields {
			c.compileExpression(f.Value)
			c.emitU16Op(OP_INIT_FIELD, c.symbolOf(f.Name, f.Name.Token).Index, f.Name.Token)
		}
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			c.compileExpression(el)
		}
		c.emitU16Op(OP_MAKE_ARRAY, len(e.Elements), e.Token)
	default:
		c.fail(expr.GetToken(), "unexpected expression %T", expr)
	}
}

// compileRef pushes the value of expr without copying it. The result may
// share structure with storage and must only be read.
func (c *Compiler) compileRef(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		sym := c.symbolOf(e, e.Token)
		if sym.IsGlobal {
			c.emitU16Op(OP_GET_GLOBAL, sym.Index, e.Token)
			return
		}
		slot := c.resolveLocal(e.Value)
		if slot < 0 {
			c.fail(e.Token, "local %s has no slot", e.Value)
		}
		c.emitU16Op(OP_GET_LOCAL, slot, e.Token)
	case *ast.MemberExpression:
		sym := c.symbolOf(e, e.Member.Token)
		if sym.Kind == symbols.EnumMemberSymbol {
			c.emitConstant(IntVal(sym.Value), e.Member.Token)
			return
		}
		c.compileRef(e.Left)
		c.emitU16Op(OP_GET_FIELD, sym.Index, e.Member.Token)
	case *ast.IndexExpression:
		c.compileRef(e.Left)
		c.compileExpression(e.Index)
		c.emit(OP_GET_INDEX, e.Token)
	default:
		c.compileExpression(expr)
	}
}

// copyAggregate makes a borrowed struct or array value owned.
func (c *Compiler) copyAggregate(expr ast.Expression) {
	switch typesystem.TagOf(c.typeOf(expr, expr.GetToken())) {
	case typesystem.TagStruct, typesystem.TagArray:
		c.emit(OP_COPY, expr.GetToken())
	}
}

func (c *Compiler) compilePrefix(pe *ast.PrefixExpression) {
	if pe.Operator == "-" {
		// Fold negative literals so they land in the constant pool.
		switch lit := pe.Right.(type) {
		case *ast.IntegerLiteral:
			c.emitConstant(IntVal(-lit.Value), pe.Token)
			return
		case *ast.FloatLiteral:
			c.emitConstant(FloatVal(-lit.Value), pe.Token)
			return
		}
	}

	c.compileExpression(pe.Right)
	switch pe.Operator {
	case "-":
		if typesystem.TagOf(c.typeOf(pe, pe.Token)) == typesystem.TagFloat {
			c.emit(OP_NEG_FLOAT, pe.Token)
		} else {
			c.emit(OP_NEG_INT, pe.Token)
		}
	case "!":
		c.emit(OP_NOT, pe.Token)
	default:
		c.fail(pe.Token, "unknown prefix operator %s", pe.Operator)
	}
}

func (c *Compiler) compileInfix(ie *ast.InfixExpression) {
	switch ie.Operator {
	case "&&", "||":
		// left; DUP; jump over right if decided; POP; right
		c.compileExpression(ie.Left)
		c.emit(OP_DUP, ie.Token)
		op := OP_JUMP_IF_FALSE
		if ie.Operator == "||" {
			op = OP_JUMP_IF_TRUE
		}
		end := c.emitJump(op, ie.Token)
		c.emit(OP_POP, ie.Token)
		c.compileExpression(ie.Right)
		c.patchJump(end)
		return
	}

	c.compileExpression(ie.Left)
	c.compileExpression(ie.Right)

	operand := c.typeOf(ie.Left, ie.Token)
	if cmp, ok := comparisons[ie.Operator]; ok {
		var op Opcode
		switch typesystem.TagOf(operand) {
		case typesystem.TagInt, typesystem.TagEnum:
			op = OP_CMP_INT
		case typesystem.TagFloat:
			op = OP_CMP_FLOAT
		case typesystem.TagString:
			op = OP_CMP_STRING
		case typesystem.TagBool:
			op = OP_CMP_BOOL
		case typesystem.TagPointer:
			op = OP_CMP_POINTER
		default:
			c.fail(ie.Token, "cannot compare %s", operand)
		}
		c.emit(op, ie.Token)
		c.emitByte(cmp, ie.Token)
		return
	}

	var op Opcode
	var ok bool
	switch typesystem.TagOf(operand) {
	case typesystem.TagInt:
		op, ok = intOps[ie.Operator]
	case typesystem.TagFloat:
		op, ok = floatOps[ie.Operator]
	case typesystem.TagString:
		op, ok = OP_CONCAT, ie.Operator == "+"
	}
	if !ok {
		c.fail(ie.Token, "operator %s is not defined for %s", ie.Operator, operand)
	}
	c.emit(op, ie.Token)
}

func (c *Compiler) compileCall(call *ast.CallExpression) {
	sym := c.symbolOf(call, call.Function.Token)
	switch sym.Kind {
	case symbols.FunctionSymbol:
		for _, arg := range call.Arguments {
			c.compileExpression(arg)
		}
		c.emitU16Op(OP_CALL, sym.Index, call.Token)
	case symbols.NativeSymbol:
		for _, arg := range call.Arguments {
			c.compileExpression(arg)
		}
		c.emitU16Op(OP_CALL_NATIVE, sym.Index, call.Token)
	case symbols.BuiltinSymbol:
		c.compileBuiltin(call, sym)
	default:
		c.fail(call.Token, "%s is not callable", sym.Name)
	}
}

func (c *Compiler) compileBuiltin(call *ast.CallExpression, sym symbols.Symbol) {
	if len(call.Arguments) == 0 {
		c.fail(call.Token, "%s without arguments", sym.Name)
	}
	arg := call.Arguments[0]

	switch sym.Name {
	case config.LenFuncName:
		c.compileRef(arg)
		if typesystem.TagOf(c.typeOf(arg, call.Token)) == typesystem.TagString {
			c.emit(OP_LEN_STRING, call.Token)
		} else {
			c.emit(OP_LEN_ARRAY, call.Token)
		}
	case config.AppendFuncName:
		c.compileExpression(arg)
		c.compileExpression(call.Arguments[1])
		c.emit(OP_APPEND, call.Token)
	case config.IntTypeName:
		c.compileExpression(arg)
		switch typesystem.TagOf(c.typeOf(arg, call.Token)) {
		case typesystem.TagFloat:
			c.emit(OP_FLOAT_TO_INT, call.Token)
		case typesystem.TagBool:
			c.emit(OP_BOOL_TO_INT, call.Token)
		}
	case config.FloatTypeName:
		c.compileExpression(arg)
		if typesystem.TagOf(c.typeOf(arg, call.Token)) == typesystem.TagInt {
			c.emit(OP_INT_TO_FLOAT, call.Token)
		}
	default:
		c.fail(call.Token, "unknown builtin %s", sym.Name)
	}
}
