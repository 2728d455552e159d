package lexer

import (
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	tokens := Tokenize(ctx.SourceCode)
	last := tokens[len(tokens)-1]
	if last.Type == token.ILLEGAL {
		ctx.AddError(illegalTokenError(last))
		return ctx
	}
	ctx.TokenStream = tokens
	return ctx
}

func illegalTokenError(tok token.Token) *diagnostics.DiagnosticError {
	code, _ := tok.Literal.(diagnostics.ErrorCode)
	switch code {
	case diagnostics.ErrL002:
		if tok.Lexeme == "/*" {
			return diagnostics.NewError(code, tok, "unterminated block comment")
		}
		if len(tok.Lexeme) > 0 && tok.Lexeme[0] == '\\' {
			return diagnostics.NewError(code, tok, "invalid escape sequence %s in string literal", tok.Lexeme)
		}
		return diagnostics.NewError(code, tok, "unterminated string literal")
	case diagnostics.ErrL003:
		return diagnostics.NewError(code, tok, "malformed numeric literal %q", tok.Lexeme)
	default:
		return diagnostics.NewError(diagnostics.ErrL001, tok, "invalid character %q", tok.Lexeme)
	}
}
