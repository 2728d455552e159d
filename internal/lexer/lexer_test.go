package lexer

import (
	"math"
	"testing"

	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `struct Vec2 { x: float; }
enum Color { Red, Green = 5 }
var counter: int = 0x10;
fn add(a: int, b: int) -> int {
	// comment
	return a + b * 2.5e1 / 3 % 4; /* block
	comment */
}
a += 1; b -= 2; c *= 3; d /= 4; e %= 5;
x == y != z < 1 <= 2 > 3 >= 4 && !t || f;
s = "hi\n\"there\"";
xs[0].y = true;
`
	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral interface{}
	}{
		{token.STRUCT, "struct"},
		{token.IDENT, "Vec2"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.IDENT, "float"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ENUM, "enum"},
		{token.IDENT, "Color"},
		{token.LBRACE, "{"},
		{token.IDENT, "Red"},
		{token.COMMA, ","},
		{token.IDENT, "Green"},
		{token.ASSIGN, "="},
		{token.INT, int64(5)},
		{token.RBRACE, "}"},
		{token.VAR, "var"},
		{token.IDENT, "counter"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.ASSIGN, "="},
		{token.INT, int64(16)},
		{token.SEMICOLON, ";"},
		{token.FN, "fn"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.IDENT, "int"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.ASTERISK, "*"},
		{token.FLOAT, 25.0},
		{token.SLASH, "/"},
		{token.INT, int64(3)},
		{token.PERCENT, "%"},
		{token.INT, int64(4)},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.IDENT, "a"},
		{token.PLUS_ASSIGN, "+="},
		{token.INT, int64(1)},
		{token.SEMICOLON, ";"},
		{token.IDENT, "b"},
		{token.MINUS_ASSIGN, "-="},
		{token.INT, int64(2)},
		{token.SEMICOLON, ";"},
		{token.IDENT, "c"},
		{token.ASTERISK_ASSIGN, "*="},
		{token.INT, int64(3)},
		{token.SEMICOLON, ";"},
		{token.IDENT, "d"},
		{token.SLASH_ASSIGN, "/="},
		{token.INT, int64(4)},
		{token.SEMICOLON, ";"},
		{token.IDENT, "e"},
		{token.PERCENT_ASSIGN, "%="},
		{token.INT, int64(5)},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.EQ, "=="},
		{token.IDENT, "y"},
		{token.NOT_EQ, "!="},
		{token.IDENT, "z"},
		{token.LT, "<"},
		{token.INT, int64(1)},
		{token.LTE, "<="},
		{token.INT, int64(2)},
		{token.GT, ">"},
		{token.INT, int64(3)},
		{token.GTE, ">="},
		{token.INT, int64(4)},
		{token.AND, "&&"},
		{token.BANG, "!"},
		{token.IDENT, "t"},
		{token.OR, "||"},
		{token.IDENT, "f"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "hi\n\"there\""},
		{token.SEMICOLON, ";"},
		{token.IDENT, "xs"},
		{token.LBRACKET, "["},
		{token.INT, int64(0)},
		{token.RBRACKET, "]"},
		{token.DOT, "."},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%v)", i, tt.expectedType, tok.Type, tok)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%v, got=%v", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Tokenize("fn f() {\n  return 12;\n}")
	ret := tokens[5]
	if ret.Type != token.RETURN || ret.Line != 2 || ret.Column != 3 {
		t.Fatalf("unexpected return token: %v", ret)
	}
	num := tokens[6]
	if num.Line != 2 || num.Column != 10 {
		t.Fatalf("unexpected number position: %v", num)
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	input := "fn f(a: int) -> int { return a * 2; }"
	a := Tokenize(input)
	b := Tokenize(input)
	if len(a) != len(b) {
		t.Fatalf("token counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input  string
		code   diagnostics.ErrorCode
		line   int
		column int
	}{
		{"var x = 1 @ 2;", diagnostics.ErrL001, 1, 11},
		{"var s = \"abc", diagnostics.ErrL002, 1, 9},
		{"var s = \"a\\qb\";", diagnostics.ErrL002, 1, 12},
		{"var x = 1;\n/* never closed", diagnostics.ErrL002, 2, 1},
		{"var x = 12abc;", diagnostics.ErrL003, 1, 9},
		{"var x = 0x;", diagnostics.ErrL003, 1, 9},
		{"var x = 1e+;", diagnostics.ErrL003, 1, 9},
		{"var x = 99999999999999999999;", diagnostics.ErrL003, 1, 9},
		{"a & b", diagnostics.ErrL001, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ctx := pipeline.NewPipelineContext(tt.input)
			ctx = (&LexerProcessor{}).Process(ctx)
			if len(ctx.Errors) != 1 {
				t.Fatalf("expected 1 error, got %d", len(ctx.Errors))
			}
			err := ctx.Errors[0]
			if err.Code != tt.code {
				t.Errorf("expected %s, got %s (%s)", tt.code, err.Code, err.Error())
			}
			if err.Kind() != diagnostics.LexError {
				t.Errorf("expected LexError kind, got %s", err.Kind())
			}
			if err.Token.Line != tt.line || err.Token.Column != tt.column {
				t.Errorf("expected position %d:%d, got %d:%d", tt.line, tt.column, err.Token.Line, err.Token.Column)
			}
			if ctx.TokenStream != nil {
				t.Errorf("token stream must not be produced on error")
			}
		})
	}
}

func TestMinIntMagnitude(t *testing.T) {
	tokens := Tokenize("9223372036854775808 0x8000000000000000 9223372036854775807")
	for i, want := range []int64{math.MinInt64, math.MinInt64, math.MaxInt64} {
		if tokens[i].Type != token.INT || tokens[i].Literal != want {
			t.Errorf("token %d: expected INT %d, got %v", i, want, tokens[i])
		}
	}

	tokens = Tokenize("9223372036854775809")
	if last := tokens[len(tokens)-1]; last.Type != token.ILLEGAL || last.Literal != diagnostics.ErrL003 {
		t.Errorf("expected L003 for a literal past 1<<63, got %v", last)
	}
}
