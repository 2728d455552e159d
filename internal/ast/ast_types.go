package ast

import (
	"github.com/funvibe/mscript/internal/token"
)

// --- Type System Nodes ---

// Type represents a type node in the AST.
// E.g., int, Vec2, float[], Color[][]
type Type interface {
	Node
	typeNode()
	GetToken() token.Token
}

// NamedType represents a primitive, struct or enum name.
type NamedType struct {
	Token token.Token // The type's IDENT token
	Name  *Identifier
}

func (nt *NamedType) Accept(v Visitor)      { v.VisitNamedType(nt) }
func (nt *NamedType) typeNode()             {}
func (nt *NamedType) TokenLiteral() string  { return nt.Token.Lexeme }
func (nt *NamedType) GetToken() token.Token { return nt.Token }

// ArrayType represents Element[].
type ArrayType struct {
	Token   token.Token // The '[' token
	Element Type
}

func (at *ArrayType) Accept(v Visitor)      { v.VisitArrayType(at) }
func (at *ArrayType) typeNode()             {}
func (at *ArrayType) TokenLiteral() string  { return at.Token.Lexeme }
func (at *ArrayType) GetToken() token.Token { return at.Token }

// TypeString renders a type node the way it was written.
func TypeString(t Type) string {
	switch tt := t.(type) {
	case nil:
		return "void"
	case *NamedType:
		return tt.Name.Value
	case *ArrayType:
		return TypeString(tt.Element) + "[]"
	}
	return "?"
}
