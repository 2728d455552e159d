package parser_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
)

// parseWithErrors runs the lexer+parser and returns all diagnostic errors.
func parseWithErrors(input string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(input)
	return pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
}

// expectError asserts an error with the given code was reported.
func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	errs := parseWithErrors(input).Errors
	if len(errs) == 0 {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	for _, e := range errs {
		if e.Code == code {
			if e.Kind() != diagnostics.SyntaxError {
				t.Errorf("expected SyntaxError kind, got %s", e.Kind())
			}
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

func countCode(errs []*diagnostics.DiagnosticError, code diagnostics.ErrorCode) int {
	n := 0
	for _, e := range errs {
		if e.Code == code {
			n++
		}
	}
	return n
}

func TestP001_UnexpectedToken(t *testing.T) {
	tests := []string{
		"x = 1;",
		"fn f() { var y = ; }",
		"fn f() { fn g() {} }",
		"fn f() { (a + b)(1); }",
		"var x = 1 + * 2;",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			expectError(t, input, diagnostics.ErrP001)
		})
	}
}

func TestP002_ExpectedConstruct(t *testing.T) {
	tests := []struct {
		input  string
		line   int
		column int
	}{
		{"var x = 1", 1, 10},
		{"var x;", 1, 6},
		{"struct S { a int; }", 1, 14},
		{"fn f(a: int { }", 1, 13},
		{"fn f() {\n  if x { }\n}", 2, 6},
		{"fn f() {\n  return 1;\n", 3, 1},
		{"enum E { A B }", 1, 12},
		{"var xs: int[ = 1;", 1, 14},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := expectError(t, tt.input, diagnostics.ErrP002)
			if err.Token.Line != tt.line || err.Token.Column != tt.column {
				t.Errorf("expected %d:%d, got %d:%d (%s)", tt.line, tt.column, err.Token.Line, err.Token.Column, err.Message)
			}
		})
	}
}

func TestP003_IdentifierTooLong(t *testing.T) {
	ok := strings.Repeat("a", 31)
	long := strings.Repeat("b", 32)

	if errs := parseWithErrors("var " + ok + " = 1;").Errors; len(errs) != 0 {
		t.Fatalf("31 characters must be accepted, got %v", errs)
	}
	for _, input := range []string{
		"var " + long + " = 1;",
		"fn " + long + "() {}",
		"struct S { " + long + ": int; }",
		"fn f() { g(" + long + "); }",
	} {
		err := expectError(t, input, diagnostics.ErrP003)
		if err.Token.Lexeme != long {
			t.Errorf("expected the error on the long identifier, got %q", err.Token.Lexeme)
		}
	}
}

func TestP004_TooManyStructMembers(t *testing.T) {
	members := func(n int) string {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "m%d: int; ", i)
		}
		return sb.String()
	}
	if errs := parseWithErrors("struct S { " + members(15) + "}").Errors; len(errs) != 0 {
		t.Fatalf("15 members must be accepted, got %v", errs)
	}
	errs := parseWithErrors("struct S { " + members(17) + "}").Errors
	if countCode(errs, diagnostics.ErrP004) != 1 {
		t.Fatalf("expected exactly one P004, got %v", errs)
	}
	if errs[0].Token.Lexeme != "m15" {
		t.Errorf("expected error at the 16th member, got %q", errs[0].Token.Lexeme)
	}
}

func TestP005_TooManyParameters(t *testing.T) {
	params := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("p%d: int", i)
		}
		return strings.Join(parts, ", ")
	}
	if errs := parseWithErrors("fn f(" + params(15) + ") {}").Errors; len(errs) != 0 {
		t.Fatalf("15 parameters must be accepted, got %v", errs)
	}
	expectError(t, "fn f("+params(16)+") {}", diagnostics.ErrP005)
	expectError(t, "fn f("+params(16)+")", diagnostics.ErrP005)
}

func TestP006_TooManyArguments(t *testing.T) {
	args := strings.TrimSuffix(strings.Repeat("1, ", 16), ", ")
	err := expectError(t, "fn f() { g("+args+"); }", diagnostics.ErrP006)
	if err.Token.Column != 57 {
		t.Errorf("expected error at the 16th argument, got column %d", err.Token.Column)
	}
}

func TestP007_NestingTooDeep(t *testing.T) {
	depth := parser.MaxRecursionDepth + 10
	input := "var x = " + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth) + ";"
	errs := parseWithErrors(input).Errors
	if countCode(errs, diagnostics.ErrP007) != 1 || len(errs) != 1 {
		t.Fatalf("expected a single P007, got %v", errs)
	}

	blocks := "fn f() " + strings.Repeat("{ ", depth) + strings.Repeat("} ", depth)
	expectError(t, blocks, diagnostics.ErrP007)
}

func TestRecoveryAtDeclarationBoundaries(t *testing.T) {
	input := "var = 1;\nfn f( {}\nstruct S { a: int; }\nvar y = ;\nfn ok() -> int { return 1; }"
	ctx := parseWithErrors(input)
	if len(ctx.Errors) != 3 {
		var msgs []string
		for _, e := range ctx.Errors {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected 3 errors, got %d:\n%s", len(ctx.Errors), strings.Join(msgs, "\n"))
	}
	lines := []int{1, 2, 4}
	for i, e := range ctx.Errors {
		if e.Token.Line != lines[i] {
			t.Errorf("error %d: expected line %d, got %d", i, lines[i], e.Token.Line)
		}
	}
	if ctx.AstRoot == nil || len(ctx.AstRoot.Declarations) != 2 {
		t.Fatalf("expected the two well-formed declarations to survive")
	}
}

func TestLexErrorsStopThePipeline(t *testing.T) {
	ctx := parseWithErrors("var s = \"open")
	if len(ctx.Errors) != 1 || ctx.Errors[0].Kind() != diagnostics.LexError {
		t.Fatalf("expected a single lex error, got %v", ctx.Errors)
	}
	if ctx.AstRoot != nil {
		t.Errorf("no AST may be produced after a lex error")
	}
}

func TestMinIntLiteral(t *testing.T) {
	ctx := parseWithErrors("var lo = -9223372036854775808;\nenum E { Low = -0x8000000000000000 }")
	if len(ctx.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	vd := ctx.AstRoot.Declarations[0].(*ast.VarDeclaration)
	lit, ok := vd.Value.(*ast.IntegerLiteral)
	if !ok || lit.Value != math.MinInt64 {
		t.Fatalf("expected a folded MinInt64 literal, got %#v", vd.Value)
	}
	if lit.Token.Line != 1 || lit.Token.Column != 10 {
		t.Errorf("literal must start at the minus sign, got %d:%d", lit.Token.Line, lit.Token.Column)
	}
	ed := ctx.AstRoot.Declarations[1].(*ast.EnumDeclaration)
	if ed.Members[0].Value.Value != math.MinInt64 {
		t.Errorf("expected MinInt64 enum value, got %d", ed.Members[0].Value.Value)
	}

	overflows := []string{
		"var x = 9223372036854775808;",
		"var x = 1 - 9223372036854775808;",
		"enum E { Big = 9223372036854775808 }",
	}
	for _, input := range overflows {
		errs := parseWithErrors(input).Errors
		if countCode(errs, diagnostics.ErrL003) != 1 {
			t.Errorf("%s: expected one L003 error, got %v", input, errs)
		}
	}
}
