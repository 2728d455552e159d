package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/mscript/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3,
	"!=": 3,
	"<":  4,
	">":  4,
	"<=": 4,
	">=": 4,
	"+":  5,
	"-":  5,
	"*":  6,
	"/":  6,
	"%":  6,
}

const prefixPrecedence = 100

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10
}

// CodePrinter renders an AST back to canonical source text. Every binary
// operator is left-associative, so a right operand of equal precedence is
// parenthesised.
type CodePrinter struct {
	ast.BaseVisitor
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// Format renders a whole program.
func Format(program *ast.Program) string {
	p := NewCodePrinter()
	program.Accept(p)
	return p.String()
}

// FormatExpression renders a single expression with minimal parentheses.
func FormatExpression(expr ast.Expression) string {
	p := NewCodePrinter()
	p.printExpr(expr, 0, false)
	return p.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec || (prec == parentPrec && isRight)
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		needParens := parentPrec > prefixPrecedence
		if needParens {
			p.write("(")
		}
		p.write(e.Operator)
		p.printExpr(e.Right, prefixPrecedence, false)
		if needParens {
			p.write(")")
		}
	default:
		expr.Accept(p)
	}
}

func (p *CodePrinter) printType(t ast.Type) {
	p.write(ast.TypeString(t))
}

func (p *CodePrinter) VisitProgram(node *ast.Program) {
	for i, decl := range node.Declarations {
		if i > 0 {
			p.write("\n")
		}
		decl.Accept(p)
	}
}

func (p *CodePrinter) VisitStructDeclaration(node *ast.StructDeclaration) {
	p.writeIndent()
	p.write("struct " + node.Name.Value + " {\n")
	p.indent++
	for _, m := range node.Members {
		p.writeIndent()
		p.write(m.Name.Value + ": ")
		p.printType(m.Type)
		p.write(";\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}\n")
}

func (p *CodePrinter) VisitEnumDeclaration(node *ast.EnumDeclaration) {
	p.writeIndent()
	p.write("enum " + node.Name.Value + " {")
	for i, m := range node.Members {
		if i > 0 {
			p.write(",")
		}
		p.write(" " + m.Name.Value)
		if m.Value != nil {
			p.write(" = " + strconv.FormatInt(m.Value.Value, 10))
		}
	}
	p.write(" }\n")
}

func (p *CodePrinter) VisitVarDeclaration(node *ast.VarDeclaration) {
	p.writeIndent()
	p.printVarDecl(node)
	p.write(";\n")
}

func (p *CodePrinter) printVarDecl(node *ast.VarDeclaration) {
	p.write("var " + node.Name.Value)
	if node.Type != nil {
		p.write(": ")
		p.printType(node.Type)
	}
	if node.Value != nil {
		p.write(" = ")
		p.printExpr(node.Value, 0, false)
	}
}

func (p *CodePrinter) VisitFunctionDeclaration(node *ast.FunctionDeclaration) {
	p.writeIndent()
	p.write("fn " + node.Name.Value + "(")
	for i, param := range node.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.Value + ": ")
		p.printType(param.Type)
	}
	p.write(")")
	if node.ReturnType != nil {
		p.write(" -> ")
		p.printType(node.ReturnType)
	}
	if node.Body == nil {
		p.write(";\n")
		return
	}
	p.write(" ")
	p.printBlock(node.Body)
	p.write("\n")
}

func (p *CodePrinter) printBlock(block *ast.BlockStatement) {
	p.write("{\n")
	p.indent++
	for _, stmt := range block.Statements {
		stmt.Accept(p)
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitBlockStatement(node *ast.BlockStatement) {
	p.writeIndent()
	p.printBlock(node)
	p.write("\n")
}

func (p *CodePrinter) VisitIfStatement(node *ast.IfStatement) {
	p.writeIndent()
	p.printIf(node)
	p.write("\n")
}

func (p *CodePrinter) printIf(node *ast.IfStatement) {
	p.write("if (")
	p.printExpr(node.Condition, 0, false)
	p.write(") ")
	p.printBlock(node.Consequence)
	switch alt := node.Alternative.(type) {
	case *ast.IfStatement:
		p.write(" else ")
		p.printIf(alt)
	case *ast.BlockStatement:
		p.write(" else ")
		p.printBlock(alt)
	}
}

func (p *CodePrinter) VisitWhileStatement(node *ast.WhileStatement) {
	p.writeIndent()
	p.write("while (")
	p.printExpr(node.Condition, 0, false)
	p.write(") ")
	p.printBlock(node.Body)
	p.write("\n")
}

func (p *CodePrinter) VisitForStatement(node *ast.ForStatement) {
	p.writeIndent()
	p.write("for (")
	p.printSimple(node.Init)
	p.write(";")
	if node.Condition != nil {
		p.write(" ")
		p.printExpr(node.Condition, 0, false)
	}
	p.write(";")
	if node.Post != nil {
		p.write(" ")
		p.printSimple(node.Post)
	}
	p.write(") ")
	p.printBlock(node.Body)
	p.write("\n")
}

// printSimple prints a for-clause statement without indentation or terminator.
func (p *CodePrinter) printSimple(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		p.printVarDecl(s)
	case *ast.AssignStatement:
		p.printAssign(s)
	case *ast.ExpressionStatement:
		p.printExpr(s.Expression, 0, false)
	}
}

func (p *CodePrinter) VisitReturnStatement(node *ast.ReturnStatement) {
	p.writeIndent()
	p.write("return")
	if node.Value != nil {
		p.write(" ")
		p.printExpr(node.Value, 0, false)
	}
	p.write(";\n")
}

func (p *CodePrinter) VisitBreakStatement(node *ast.BreakStatement) {
	p.writeIndent()
	p.write("break;\n")
}

func (p *CodePrinter) VisitContinueStatement(node *ast.ContinueStatement) {
	p.writeIndent()
	p.write("continue;\n")
}

func (p *CodePrinter) VisitAssignStatement(node *ast.AssignStatement) {
	p.writeIndent()
	p.printAssign(node)
	p.write(";\n")
}

func (p *CodePrinter) printAssign(node *ast.AssignStatement) {
	p.printExpr(node.Target, 0, false)
	p.write(" = ")
	p.printExpr(node.Value, 0, false)
}

func (p *CodePrinter) VisitExpressionStatement(node *ast.ExpressionStatement) {
	p.writeIndent()
	p.printExpr(node.Expression, 0, false)
	p.write(";\n")
}

func (p *CodePrinter) VisitIdentifier(node *ast.Identifier) {
	p.write(node.Value)
}

func (p *CodePrinter) VisitIntegerLiteral(node *ast.IntegerLiteral) {
	p.write(strconv.FormatInt(node.Value, 10))
}

func (p *CodePrinter) VisitFloatLiteral(node *ast.FloatLiteral) {
	s := strconv.FormatFloat(node.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	p.write(s)
}

func (p *CodePrinter) VisitStringLiteral(node *ast.StringLiteral) {
	p.write(quote(node.Value))
}

func (p *CodePrinter) VisitBooleanLiteral(node *ast.BooleanLiteral) {
	p.write(strconv.FormatBool(node.Value))
}

func (p *CodePrinter) VisitPrefixExpression(node *ast.PrefixExpression) {
	p.printExpr(node, 0, false)
}

func (p *CodePrinter) VisitInfixExpression(node *ast.InfixExpression) {
	p.printExpr(node, 0, false)
}

func (p *CodePrinter) VisitCallExpression(node *ast.CallExpression) {
	p.write(node.Function.Value + "(")
	p.printList(node.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitMemberExpression(node *ast.MemberExpression) {
	p.printExpr(node.Left, prefixPrecedence+1, false)
	p.write("." + node.Member.Value)
}

func (p *CodePrinter) VisitIndexExpression(node *ast.IndexExpression) {
	p.printExpr(node.Left, prefixPrecedence+1, false)
	p.write("[")
	p.printExpr(node.Index, 0, false)
	p.write("]")
}

func (p *CodePrinter) VisitStructLiteral(node *ast.StructLiteral) {
	p.write(node.Name.Value + "{")
	for i, f := range node.Fields {
		if i > 0 {
			p.write(", ")
		}
		p.write(f.Name.Value + ": ")
		p.printExpr(f.Value, 0, false)
	}
	p.write("}")
}

func (p *CodePrinter) VisitArrayLiteral(node *ast.ArrayLiteral) {
	p.write("[")
	p.printList(node.Elements)
	p.write("]")
}

func (p *CodePrinter) VisitNamedType(node *ast.NamedType) {
	p.printType(node)
}

func (p *CodePrinter) VisitArrayType(node *ast.ArrayType) {
	p.printType(node)
}

func (p *CodePrinter) printList(exprs []ast.Expression) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}

// quote escapes a string using the language's escape set.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
