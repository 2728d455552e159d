package parser

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/token"
)

// parseStatement parses one statement inside a block. Like declarations,
// it leaves curToken on the statement's last token.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAR:
		if vd := p.parseVarDeclaration(); vd != nil {
			return vd
		}
		return nil
	case token.IF:
		if is := p.parseIfStatement(); is != nil {
			return is
		}
		return nil
	case token.WHILE:
		if ws := p.parseWhileStatement(); ws != nil {
			return ws
		}
		return nil
	case token.FOR:
		if fs := p.parseForStatement(); fs != nil {
			return fs
		}
		return nil
	case token.RETURN:
		if rs := p.parseReturnStatement(); rs != nil {
			return rs
		}
		return nil
	case token.BREAK:
		bs := &ast.BreakStatement{Token: p.curToken}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		return bs
	case token.CONTINUE:
		cs := &ast.ContinueStatement{Token: p.curToken}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		return cs
	case token.LBRACE:
		if block := p.parseBlockStatement(); block != nil {
			return block
		}
		return nil
	case token.STRUCT, token.ENUM, token.FN:
		p.addError(diagnostics.ErrP001, p.curToken, "%s declarations are only allowed at top level", p.curToken.Lexeme)
		return nil
	}

	stmt := p.parseSimpleStatement()
	if stmt == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	if !p.enter() {
		p.leave()
		return nil
	}
	defer p.leave()

	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addError(diagnostics.ErrP002, p.curToken, "expected '}' to close block opened at %d:%d", block.Token.Line, block.Token.Column)
			return nil
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
		p.nextToken()
	}
	return block
}

// parseSimpleStatement parses an assignment or an expression statement
// without its terminator. Compound assignments are desugared: t += v
// becomes t = t + v.
func (p *Parser) parseSimpleStatement() ast.Statement {
	startToken := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		as := &ast.AssignStatement{Token: p.curToken, Target: expr}
		p.nextToken()
		as.Value = p.parseExpression(LOWEST)
		if as.Value == nil {
			return nil
		}
		return as
	}
	if op, ok := compoundOps[p.peekToken.Type]; ok {
		p.nextToken()
		as := &ast.AssignStatement{Token: p.curToken, Target: expr}
		opToken := p.curToken
		opToken.Type = op
		opToken.Lexeme = string(op)
		opToken.Literal = string(op)
		p.nextToken()
		rhs := p.parseExpression(LOWEST)
		if rhs == nil {
			return nil
		}
		as.Value = &ast.InfixExpression{Token: opToken, Left: expr, Operator: string(op), Right: rhs}
		return as
	}

	return &ast.ExpressionStatement{Token: startToken, Expression: expr}
}

// if (cond) { ... } else if (cond) { ... } else { ... }
func (p *Parser) parseIfStatement() *ast.IfStatement {
	is := &ast.IfStatement{Token: p.curToken}
	is.Condition = p.parseParenCondition()
	if is.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	is.Consequence = p.parseBlockStatement()
	if is.Consequence == nil {
		return nil
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alt := p.parseIfStatement()
			if alt == nil {
				return nil
			}
			is.Alternative = alt
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			alt := p.parseBlockStatement()
			if alt == nil {
				return nil
			}
			is.Alternative = alt
		}
	}
	return is
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	ws := &ast.WhileStatement{Token: p.curToken}
	ws.Condition = p.parseParenCondition()
	if ws.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	ws.Body = p.parseBlockStatement()
	if ws.Body == nil {
		return nil
	}
	return ws
}

// for (init; cond; post) { ... } with every clause optional.
func (p *Parser) parseForStatement() *ast.ForStatement {
	fs := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	p.nextToken()
	switch {
	case p.curTokenIs(token.SEMICOLON):
	case p.curTokenIs(token.VAR):
		vd := p.parseVarDeclaration()
		if vd == nil {
			return nil
		}
		fs.Init = vd
	default:
		fs.Init = p.parseSimpleStatement()
		if fs.Init == nil || !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	p.nextToken()
	if !p.curTokenIs(token.SEMICOLON) {
		fs.Condition = p.parseExpression(LOWEST)
		if fs.Condition == nil || !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	p.nextToken()
	if !p.curTokenIs(token.RPAREN) {
		fs.Post = p.parseSimpleStatement()
		if fs.Post == nil || !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fs.Body = p.parseBlockStatement()
	if fs.Body == nil {
		return nil
	}
	return fs
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	rs := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return rs
	}
	p.nextToken()
	rs.Value = p.parseExpression(LOWEST)
	if rs.Value == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return rs
}

// parseParenCondition parses "(expr)" following a keyword.
func (p *Parser) parseParenCondition() ast.Expression {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return cond
}
