package vm

import (
	"errors"

	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/token"
)

// CompilerProcessor is the final pipeline stage: it turns the analyzed AST
// into a *Program stored in ctx.Program.
type CompilerProcessor struct {
	// Natives are the host implementations of the prototypes in ctx.Natives.
	Natives map[string]NativeFunc
}

func (cp *CompilerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	compiler := NewCompiler(ctx.SymbolTable, ctx.TypeMap, ctx.ResolutionMap)
	prog, err := compiler.Compile(ctx.AstRoot, ctx.FilePath, cp.Natives)
	if err != nil {
		var de *diagnostics.DiagnosticError
		if !errors.As(err, &de) {
			de = diagnostics.NewError(diagnostics.ErrC001, token.Token{}, "%v", err)
		}
		ctx.AddError(de)
		return ctx
	}
	ctx.Program = prog
	return ctx
}
