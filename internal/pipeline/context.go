package pipeline

import (
	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/token"
	"github.com/funvibe/mscript/internal/typesystem"
)

// PipelineContext carries one source unit through the stages.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	// Natives are host function prototypes visible to the script.
	Natives []*ast.FunctionDeclaration

	TokenStream []token.Token
	AstRoot     *ast.Program

	SymbolTable   *symbols.SymbolTable
	TypeMap       map[ast.Node]typesystem.Type
	ResolutionMap map[ast.Node]symbols.Symbol

	// Program is the compiled *vm.Program. It is untyped here to keep the
	// pipeline package free of the vm dependency.
	Program interface{}

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(input string) *PipelineContext {
	return &PipelineContext{
		SourceCode:    input,
		SymbolTable:   symbols.NewSymbolTable(),
		TypeMap:       make(map[ast.Node]typesystem.Type),
		ResolutionMap: make(map[ast.Node]symbols.Symbol),
	}
}

// AddError records err, stamping the file path when missing.
func (ctx *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, err)
}

// Err returns the collected errors as an error value, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return diagnostics.ErrorList(ctx.Errors)
}
