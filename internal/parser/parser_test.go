package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/prettyprinter"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	ctx := pipeline.NewPipelineContext(input)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if len(ctx.Errors) > 0 {
		var msgs []string
		for _, err := range ctx.Errors {
			msgs = append(msgs, err.Error())
		}
		t.Fatalf("parsing failed with errors:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
	return ctx.AstRoot
}

// parseExpr parses input as the initializer of a global.
func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	program := parse(t, "var __x = "+input+";")
	vd, ok := program.Declarations[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("expected *ast.VarDeclaration, got %T", program.Declarations[0])
	}
	return vd.Value
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "a + b * c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - b - c", "a - b - c"},
		{"a - (b - c)", "a - (b - c)"},
		{"-a * b", "-a * b"},
		{"-(a + b)", "-(a + b)"},
		{"!a && b || c", "!a && b || c"},
		{"a || (b && c)", "a || b && c"},
		{"(a || b) && c", "(a || b) && c"},
		{"a < b == c > d", "a < b == c > d"},
		{"a % b * c / d", "a % b * c / d"},
		{"f(a, b + 1)[2].x", "f(a, b + 1)[2].x"},
		{"xs[i + 1].pos.y * 2.0", "xs[i + 1].pos.y * 2.0"},
		{"Vec2{x: 1.0, y: 2.5}", "Vec2{x: 1.0, y: 2.5}"},
		{"Vec2{}", "Vec2{}"},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"[]", "[]"},
		{`"a\n" + s`, `"a\n" + s`},
		{"Color.Red", "Color.Red"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := prettyprinter.FormatExpression(parseExpr(t, tt.input))
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInfixTreeShape(t *testing.T) {
	expr := parseExpr(t, "1 + 2 * 3")
	top, ok := expr.(*ast.InfixExpression)
	if !ok || top.Operator != "+" {
		t.Fatalf("expected + at the root, got %#v", expr)
	}
	right, ok := top.Right.(*ast.InfixExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("expected * on the right, got %#v", top.Right)
	}
	if lit, ok := top.Left.(*ast.IntegerLiteral); !ok || lit.Value != 1 {
		t.Fatalf("expected literal 1 on the left, got %#v", top.Left)
	}
}

func TestDeclarations(t *testing.T) {
	input := `
struct Vec2 { x: float; y: float; }
struct Grid { cells: int[][], origin: Vec2 }
enum Color { Red, Green = 5, Blue, Deep = -3, }
var counter: int = 0;
var names: string[];
fn add(a: int, b: int) -> int { return a + b; }
fn main() { }
`
	program := parse(t, input)
	if len(program.Declarations) != 7 {
		t.Fatalf("expected 7 declarations, got %d", len(program.Declarations))
	}

	vec := program.Declarations[0].(*ast.StructDeclaration)
	if vec.Name.Value != "Vec2" || len(vec.Members) != 2 || vec.Members[1].Name.Value != "y" {
		t.Errorf("unexpected struct: %+v", vec)
	}
	grid := program.Declarations[1].(*ast.StructDeclaration)
	if got := ast.TypeString(grid.Members[0].Type); got != "int[][]" {
		t.Errorf("expected int[][], got %s", got)
	}

	color := program.Declarations[2].(*ast.EnumDeclaration)
	if len(color.Members) != 4 {
		t.Fatalf("expected 4 enum members, got %d", len(color.Members))
	}
	if color.Members[0].Value != nil || color.Members[1].Value.Value != 5 || color.Members[3].Value.Value != -3 {
		t.Errorf("unexpected enum values: %+v", color.Members)
	}

	names := program.Declarations[4].(*ast.VarDeclaration)
	if names.Value != nil || ast.TypeString(names.Type) != "string[]" {
		t.Errorf("unexpected var: %+v", names)
	}

	add := program.Declarations[5].(*ast.FunctionDeclaration)
	if len(add.Parameters) != 2 || ast.TypeString(add.ReturnType) != "int" {
		t.Errorf("unexpected function header: %+v", add)
	}
	main := program.Declarations[6].(*ast.FunctionDeclaration)
	if main.ReturnType != nil || main.Body == nil || len(main.Body.Statements) != 0 {
		t.Errorf("unexpected main: %+v", main)
	}
}

func TestCompoundAssignDesugars(t *testing.T) {
	program := parse(t, "fn f() { xs[i].n *= 2; }")
	fn := program.Declarations[0].(*ast.FunctionDeclaration)
	as, ok := fn.Body.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected assignment, got %T", fn.Body.Statements[0])
	}
	value, ok := as.Value.(*ast.InfixExpression)
	if !ok || value.Operator != "*" {
		t.Fatalf("expected desugared *, got %#v", as.Value)
	}
	if value.Left != as.Target {
		t.Errorf("desugared left operand must be the assignment target")
	}
	if got := prettyprinter.FormatExpression(value); got != "xs[i].n * 2" {
		t.Errorf("unexpected desugared value %q", got)
	}
}

func TestStatements(t *testing.T) {
	input := `fn f(n: int) -> int {
	var total = 0;
	for (var i = 0; i < n; i += 1) {
		if (i % 2 == 0) { continue; } else if (i > 10) { break; } else { total += i; }
	}
	for (;;) { break; }
	while (total > 100) { total = total - 1; }
	{ var inner: bool = true; }
	g(total);
	return total;
}`
	program := parse(t, input)
	body := program.Declarations[0].(*ast.FunctionDeclaration).Body.Statements
	if len(body) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(body))
	}

	loop := body[1].(*ast.ForStatement)
	if _, ok := loop.Init.(*ast.VarDeclaration); !ok {
		t.Errorf("expected var init, got %T", loop.Init)
	}
	if _, ok := loop.Post.(*ast.AssignStatement); !ok {
		t.Errorf("expected assignment post, got %T", loop.Post)
	}
	chain := loop.Body.Statements[0].(*ast.IfStatement)
	elseIf, ok := chain.Alternative.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected else-if, got %T", chain.Alternative)
	}
	if _, ok := elseIf.Alternative.(*ast.BlockStatement); !ok {
		t.Errorf("expected final else block, got %T", elseIf.Alternative)
	}

	empty := body[2].(*ast.ForStatement)
	if empty.Init != nil || empty.Condition != nil || empty.Post != nil {
		t.Errorf("expected empty for clauses: %+v", empty)
	}
	if _, ok := body[4].(*ast.BlockStatement); !ok {
		t.Errorf("expected nested block, got %T", body[4])
	}
	if _, ok := body[5].(*ast.ExpressionStatement); !ok {
		t.Errorf("expected expression statement, got %T", body[5])
	}
	if ret := body[6].(*ast.ReturnStatement); ret.Value == nil {
		t.Errorf("expected return value")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	input := `struct P { x: int; tags: string[]; }
enum E { A, B = 4 }
var g: int = -1;
fn h(p: P) -> int { if (p.x > 0 && !(p.x == 3)) { return p.x * (2 + g); } return len(p.tags); }
fn main() { var p = P{x: 1, tags: ["a", "b\t"]}; for (var i = 0; i < 2; i = i + 1) { p.x += h(p); } }
`
	first := prettyprinter.Format(parse(t, input))
	second := prettyprinter.Format(parse(t, first))
	if first != second {
		t.Errorf("formatting is not stable:\n%s\n---\n%s", first, second)
	}
}

func TestParsePrototype(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		params int
		ret    string
	}{
		{"fn hostLog(msg: string)", "hostLog", 1, "void"},
		{"fn hostAdd(a: int, b: int) -> int;", "hostAdd", 2, "int"},
		{"fn spawn(kind: int, at: float[]) -> voidptr", "spawn", 2, "voidptr"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ctx := (&lexer.LexerProcessor{}).Process(pipeline.NewPipelineContext(tt.input))
			fn := parser.ParsePrototype(ctx)
			if fn == nil {
				t.Fatalf("unexpected errors: %v", ctx.Err())
			}
			if fn.Name.Value != tt.name || len(fn.Parameters) != tt.params || ast.TypeString(fn.ReturnType) != tt.ret {
				t.Errorf("unexpected prototype %+v", fn)
			}
			if fn.Body != nil {
				t.Errorf("prototype must have no body")
			}
		})
	}
}

func TestParsePrototypeRejectsBodies(t *testing.T) {
	for _, input := range []string{"fn f() {}", "var x = 1;", "fn (a: int)"} {
		ctx := (&lexer.LexerProcessor{}).Process(pipeline.NewPipelineContext(input))
		if fn := parser.ParsePrototype(ctx); fn != nil || len(ctx.Errors) == 0 {
			t.Errorf("%q: expected a prototype error", input)
		}
	}
}
