package parser

import (
	"math"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if !p.enter() {
		p.leave()
		return nil
	}
	defer p.leave()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	if p.isStructLiteralStart() {
		return p.parseStructLiteral()
	}
	return p.newIdentifier()
}

// isStructLiteralStart reports whether curToken begins "Name{}" or
// "Name{field: ...". Conditions are parenthesised, so a block never
// directly follows an identifier in expression position.
func (p *Parser) isStructLiteralStart() bool {
	if !p.peekTokenIs(token.LBRACE) {
		return false
	}
	next := p.tokenAt(2)
	if next.Type == token.RBRACE {
		return true
	}
	return next.Type == token.IDENT && p.tokenAt(3).Type == token.COLON
}

// Name{field: value, ...}
func (p *Parser) parseStructLiteral() ast.Expression {
	sl := &ast.StructLiteral{Token: p.curToken, Name: p.newIdentifier()}
	p.nextToken() // '{'

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := &ast.FieldInit{Name: p.newIdentifier()}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		field.Value = p.parseExpression(LOWEST)
		if field.Value == nil {
			return nil
		}
		sl.Fields = append(sl.Fields, field)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.RBRACE) {
			p.addError(diagnostics.ErrP002, p.peekToken, "expected ',' or '}' in struct literal, got %s", describeToken(p.peekToken))
			return nil
		}
	}
	p.nextToken() // '}'
	return sl
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value := p.curToken.Literal.(int64)
	if value == math.MinInt64 {
		p.addError(diagnostics.ErrL003, p.curToken, "integer literal %s overflows int", p.curToken.Lexeme)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

// isMinIntMagnitude reports whether tok is the literal 1<<63, which only
// fits in an int when negated.
func isMinIntMagnitude(tok token.Token) bool {
	v, ok := tok.Literal.(int64)
	return tok.Type == token.INT && ok && v == math.MinInt64
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	return &ast.FloatLiteral{Token: p.curToken, Value: p.curToken.Literal.(float64)}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal.(string)}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
	}
	if expression.Operator == "-" && isMinIntMagnitude(p.peekToken) {
		p.nextToken()
		tok := p.curToken
		tok.Lexeme = "-" + tok.Lexeme
		tok.Line, tok.Column = expression.Token.Line, expression.Token.Column
		return &ast.IntegerLiteral{Token: tok, Value: math.MinInt64}
	}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

// [e1, e2, ...]
func (p *Parser) parseArrayLiteral() ast.Expression {
	al := &ast.ArrayLiteral{Token: p.curToken}
	elements, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	al.Elements = elements
	return al
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	ident, ok := function.(*ast.Identifier)
	if !ok {
		p.addError(diagnostics.ErrP001, p.curToken, "only named functions can be called")
		return nil
	}
	call := &ast.CallExpression{Token: p.curToken, Function: ident}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	if len(args) > config.MaxFunctionArgs {
		p.addError(diagnostics.ErrP006, args[config.MaxFunctionArgs].GetToken(),
			"call to %s has %d arguments; the limit is %d", ident.Value, len(args), config.MaxFunctionArgs)
	}
	call.Arguments = args
	return call
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	exp := &ast.MemberExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	exp.Member = p.newIdentifier()
	return exp
}

// parseExpressionList parses comma separated expressions up to end. The
// opening delimiter is curToken.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, bool) {
	list := []ast.Expression{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil, false
	}
	list = append(list, first)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil, false
		}
		list = append(list, exp)
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}
