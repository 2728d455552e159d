package parser

import (
	"fmt"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/token"
)

// MaxRecursionDepth bounds expression and block nesting.
const MaxRecursionDepth = config.MaxNestingDepth

const (
	_ int = iota
	LOWEST
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	POSTFIX     // call, index, member
)

var precedences = map[token.TokenType]int{
	token.OR:       LOGIC_OR,
	token.AND:      LOGIC_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.LTE:      LESSGREATER,
	token.GT:       LESSGREATER,
	token.GTE:      LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   POSTFIX,
	token.LBRACKET: POSTFIX,
	token.DOT:      POSTFIX,
}

// compoundOps maps a compound assignment to the operator it desugars to.
var compoundOps = map[token.TokenType]token.TokenType{
	token.PLUS_ASSIGN:     token.PLUS,
	token.MINUS_ASSIGN:    token.MINUS,
	token.ASTERISK_ASSIGN: token.ASTERISK,
	token.SLASH_ASSIGN:    token.SLASH,
	token.PERCENT_ASSIGN:  token.PERCENT,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth               int
	braceDepth          int
	inRecursionRecovery bool
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{tokens: tokens, ctx: ctx, pos: -1}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, tt := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)

	p.pos = 0
	p.curToken = p.tokenAt(0)
	p.peekToken = p.tokenAt(1)
	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// tokenAt returns the token offset positions after curToken, or EOF past the end.
func (p *Parser) tokenAt(offset int) token.Token {
	i := p.pos + offset
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return token.Token{Type: token.EOF, Line: last.Line, Column: last.Column}
	}
	return token.Token{Type: token.EOF, Line: 1, Column: 1}
}

func (p *Parser) nextToken() {
	switch p.curToken.Type {
	case token.LBRACE:
		p.braceDepth++
	case token.RBRACE:
		if p.braceDepth > 0 {
			p.braceDepth--
		}
	}
	p.pos++
	p.curToken = p.tokenAt(0)
	p.peekToken = p.tokenAt(1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) addError(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	p.ctx.AddError(diagnostics.NewError(code, tok, format, args...))
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(diagnostics.ErrP002, p.peekToken, "expected %s, got %s", describe(t), describeToken(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.addError(diagnostics.ErrP001, tok, "unexpected %s in expression", describeToken(tok))
}

// enter tracks nesting; it reports P007 once and returns false past the limit.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.addError(diagnostics.ErrP007, p.curToken, "nesting too deep: limit is %d", MaxRecursionDepth)
			p.inRecursionRecovery = true
		}
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
	if p.depth == 0 {
		p.inRecursionRecovery = false
	}
}

// newIdentifier builds an identifier from curToken, enforcing the length limit.
func (p *Parser) newIdentifier() *ast.Identifier {
	name := p.curToken.Lexeme
	if len(name) > config.MaxSymbolLen {
		p.addError(diagnostics.ErrP003, p.curToken, "identifier %q is %d characters long; the limit is %d", name, len(name), config.MaxSymbolLen)
	}
	return &ast.Identifier{Token: p.curToken, Value: name}
}

// ParseProgram parses every top-level declaration. On a malformed
// declaration it reports the error and resumes at the next declaration.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}

	for !p.curTokenIs(token.EOF) {
		decl := p.parseDeclaration()
		if decl == nil {
			p.synchronize()
			continue
		}
		program.Declarations = append(program.Declarations, decl)
		p.nextToken()
	}
	return program
}

// synchronize skips to the start of the next top-level declaration.
func (p *Parser) synchronize() {
	p.depth = 0
	p.inRecursionRecovery = false
	p.nextToken()
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.STRUCT, token.ENUM, token.FN:
			p.braceDepth = 0
			return
		case token.VAR:
			if p.braceDepth == 0 {
				return
			}
		}
		p.nextToken()
	}
}

// ParsePrototype parses a single function header without a body, e.g.
// "fn hostLog(msg: string)". A trailing semicolon is allowed.
func ParsePrototype(ctx *pipeline.PipelineContext) *ast.FunctionDeclaration {
	p := New(ctx.TokenStream, ctx)
	if !p.curTokenIs(token.FN) {
		p.addError(diagnostics.ErrP002, p.curToken, "expected a function prototype, got %s", describeToken(p.curToken))
		return nil
	}
	fn := p.parseFunctionHeader()
	if fn == nil {
		return nil
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	if !p.peekTokenIs(token.EOF) {
		p.addError(diagnostics.ErrP001, p.peekToken, "unexpected %s after prototype", describeToken(p.peekToken))
		return nil
	}
	if len(ctx.Errors) > 0 {
		return nil
	}
	return fn
}

func describe(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.INT:
		return "integer literal"
	case token.EOF:
		return "end of input"
	}
	if isKeywordType(t) {
		return fmt.Sprintf("keyword %q", lowerKeyword(t))
	}
	return fmt.Sprintf("'%s'", string(t))
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Lexeme)
	case token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("literal %s", tok.Lexeme)
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

func isKeywordType(t token.TokenType) bool {
	return token.LookupIdent(lowerKeyword(t)) == t
}

func lowerKeyword(t token.TokenType) string {
	b := []byte(t)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
