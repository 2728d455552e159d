package parser

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/token"
)

// parseDeclaration parses one top-level item. It leaves curToken on the
// item's last token and returns nil after a structural error.
func (p *Parser) parseDeclaration() ast.Statement {
	switch p.curToken.Type {
	case token.STRUCT:
		if sd := p.parseStructDeclaration(); sd != nil {
			return sd
		}
	case token.ENUM:
		if ed := p.parseEnumDeclaration(); ed != nil {
			return ed
		}
	case token.VAR:
		if vd := p.parseVarDeclaration(); vd != nil {
			return vd
		}
	case token.FN:
		if fd := p.parseFunctionDeclaration(); fd != nil {
			return fd
		}
	default:
		p.addError(diagnostics.ErrP001, p.curToken,
			"unexpected %s at top level: expected struct, enum, var or fn", describeToken(p.curToken))
	}
	return nil
}

// struct Name { member: Type; ... }
func (p *Parser) parseStructDeclaration() *ast.StructDeclaration {
	sd := &ast.StructDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	sd.Name = p.newIdentifier()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		member := &ast.StructMember{Name: p.newIdentifier()}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		member.Type = p.parseType()
		if member.Type == nil {
			return nil
		}
		sd.Members = append(sd.Members, member)
		if len(sd.Members) == config.MaxStructMembers+1 {
			p.addError(diagnostics.ErrP004, member.Name.Token,
				"struct %s has too many members: the limit is %d", sd.Name.Value, config.MaxStructMembers)
		}

		if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.RBRACE) {
			p.addError(diagnostics.ErrP002, p.peekToken, "expected ';' or '}' after struct member, got %s", describeToken(p.peekToken))
			return nil
		}
	}
	p.nextToken() // '}'
	p.skipOptionalSemicolon()
	return sd
}

// enum Name { A, B = 5, C }
func (p *Parser) parseEnumDeclaration() *ast.EnumDeclaration {
	ed := &ast.EnumDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	ed.Name = p.newIdentifier()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		member := &ast.EnumMember{Name: p.newIdentifier()}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			member.Value = p.parseEnumValue()
			if member.Value == nil {
				return nil
			}
		}
		ed.Members = append(ed.Members, member)

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.RBRACE) {
			p.addError(diagnostics.ErrP002, p.peekToken, "expected ',' or '}' after enum member, got %s", describeToken(p.peekToken))
			return nil
		}
	}
	p.nextToken() // '}'
	p.skipOptionalSemicolon()
	return ed
}

// parseEnumValue parses an optionally negated integer literal after '='.
func (p *Parser) parseEnumValue() *ast.IntegerLiteral {
	negative := false
	if p.peekTokenIs(token.MINUS) {
		p.nextToken()
		negative = true
	}
	if !p.expectPeek(token.INT) {
		return nil
	}
	lit := &ast.IntegerLiteral{Token: p.curToken, Value: p.curToken.Literal.(int64)}
	if !negative && isMinIntMagnitude(p.curToken) {
		p.addError(diagnostics.ErrL003, p.curToken, "integer literal %s overflows int", p.curToken.Lexeme)
		return nil
	}
	if negative {
		lit.Value = -lit.Value
	}
	return lit
}

// var name: Type = value;  (type and/or value)
func (p *Parser) parseVarDeclaration() *ast.VarDeclaration {
	vd := &ast.VarDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	vd.Name = p.newIdentifier()

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		vd.Type = p.parseType()
		if vd.Type == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		vd.Value = p.parseExpression(LOWEST)
		if vd.Value == nil {
			return nil
		}
	}
	if vd.Type == nil && vd.Value == nil {
		p.addError(diagnostics.ErrP002, p.peekToken, "variable %s needs a type or an initializer", vd.Name.Value)
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return vd
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	fd := p.parseFunctionHeader()
	if fd == nil {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fd.Body = p.parseBlockStatement()
	if fd.Body == nil {
		return nil
	}
	return fd
}

// parseFunctionHeader parses "fn name(params) -> Type" and leaves curToken
// on the header's last token.
func (p *Parser) parseFunctionHeader() *ast.FunctionDeclaration {
	fd := &ast.FunctionDeclaration{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fd.Name = p.newIdentifier()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	fd.Parameters = params

	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		fd.ReturnType = p.parseType()
		if fd.ReturnType == nil {
			return nil
		}
	}
	return fd
}

func (p *Parser) parseFunctionParameters() ([]*ast.Parameter, bool) {
	var params []*ast.Parameter
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		param := &ast.Parameter{Name: p.newIdentifier()}
		if !p.expectPeek(token.COLON) {
			return nil, false
		}
		p.nextToken()
		param.Type = p.parseType()
		if param.Type == nil {
			return nil, false
		}
		params = append(params, param)
		if len(params) == config.MaxFunctionArgs+1 {
			p.addError(diagnostics.ErrP005, param.Name.Token,
				"too many parameters: the limit is %d", config.MaxFunctionArgs)
		}

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

// parseType parses a type starting at curToken: Name followed by any
// number of "[]" suffixes.
func (p *Parser) parseType() ast.Type {
	if !p.curTokenIs(token.IDENT) {
		p.addError(diagnostics.ErrP002, p.curToken, "expected a type, got %s", describeToken(p.curToken))
		return nil
	}
	var t ast.Type = &ast.NamedType{Token: p.curToken, Name: p.newIdentifier()}
	for p.peekTokenIs(token.LBRACKET) {
		p.nextToken()
		at := &ast.ArrayType{Token: p.curToken, Element: t}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		t = at
	}
	return t
}

func (p *Parser) skipOptionalSemicolon() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}
