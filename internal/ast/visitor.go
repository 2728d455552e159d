package ast

// Visitor is implemented by passes that walk the tree through Accept.
type Visitor interface {
	VisitProgram(node *Program)

	VisitStructDeclaration(node *StructDeclaration)
	VisitEnumDeclaration(node *EnumDeclaration)
	VisitVarDeclaration(node *VarDeclaration)
	VisitFunctionDeclaration(node *FunctionDeclaration)

	VisitBlockStatement(node *BlockStatement)
	VisitIfStatement(node *IfStatement)
	VisitWhileStatement(node *WhileStatement)
	VisitForStatement(node *ForStatement)
	VisitReturnStatement(node *ReturnStatement)
	VisitBreakStatement(node *BreakStatement)
	VisitContinueStatement(node *ContinueStatement)
	VisitAssignStatement(node *AssignStatement)
	VisitExpressionStatement(node *ExpressionStatement)

	VisitIdentifier(node *Identifier)
	VisitIntegerLiteral(node *IntegerLiteral)
	VisitFloatLiteral(node *FloatLiteral)
	VisitStringLiteral(node *StringLiteral)
	VisitBooleanLiteral(node *BooleanLiteral)
	VisitPrefixExpression(node *PrefixExpression)
	VisitInfixExpression(node *InfixExpression)
	VisitCallExpression(node *CallExpression)
	VisitMemberExpression(node *MemberExpression)
	VisitIndexExpression(node *IndexExpression)
	VisitStructLiteral(node *StructLiteral)
	VisitArrayLiteral(node *ArrayLiteral)

	VisitNamedType(node *NamedType)
	VisitArrayType(node *ArrayType)
}

// BaseVisitor implements Visitor with no-op methods. Embed it and override
// the nodes a pass cares about.
type BaseVisitor struct{}

func (BaseVisitor) VisitProgram(*Program)                         {}
func (BaseVisitor) VisitStructDeclaration(*StructDeclaration)     {}
func (BaseVisitor) VisitEnumDeclaration(*EnumDeclaration)         {}
func (BaseVisitor) VisitVarDeclaration(*VarDeclaration)           {}
func (BaseVisitor) VisitFunctionDeclaration(*FunctionDeclaration) {}
func (BaseVisitor) VisitBlockStatement(*BlockStatement)           {}
func (BaseVisitor) VisitIfStatement(*IfStatement)                 {}
func (BaseVisitor) VisitWhileStatement(*WhileStatement)           {}
func (BaseVisitor) VisitForStatement(*ForStatement)               {}
func (BaseVisitor) VisitReturnStatement(*ReturnStatement)         {}
func (BaseVisitor) VisitBreakStatement(*BreakStatement)           {}
func (BaseVisitor) VisitContinueStatement(*ContinueStatement)     {}
func (BaseVisitor) VisitAssignStatement(*AssignStatement)         {}
func (BaseVisitor) VisitExpressionStatement(*ExpressionStatement) {}
func (BaseVisitor) VisitIdentifier(*Identifier)                   {}
func (BaseVisitor) VisitIntegerLiteral(*IntegerLiteral)           {}
func (BaseVisitor) VisitFloatLiteral(*FloatLiteral)               {}
func (BaseVisitor) VisitStringLiteral(*StringLiteral)             {}
func (BaseVisitor) VisitBooleanLiteral(*BooleanLiteral)           {}
func (BaseVisitor) VisitPrefixExpression(*PrefixExpression)       {}
func (BaseVisitor) VisitInfixExpression(*InfixExpression)         {}
func (BaseVisitor) VisitCallExpression(*CallExpression)           {}
func (BaseVisitor) VisitMemberExpression(*MemberExpression)       {}
func (BaseVisitor) VisitIndexExpression(*IndexExpression)         {}
func (BaseVisitor) VisitStructLiteral(*StructLiteral)             {}
func (BaseVisitor) VisitArrayLiteral(*ArrayLiteral)               {}
func (BaseVisitor) VisitNamedType(*NamedType)                     {}
func (BaseVisitor) VisitArrayType(*ArrayType)                     {}
