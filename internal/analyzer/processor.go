package analyzer

import (
	"github.com/funvibe/mscript/internal/pipeline"
)

type SemanticAnalyzerProcessor struct{}

func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}

	analyzer := New(ctx.SymbolTable)
	errors := analyzer.Analyze(ctx.AstRoot, ctx.Natives)

	ctx.TypeMap = analyzer.TypeMap
	ctx.ResolutionMap = analyzer.ResolutionMap
	for _, err := range errors {
		ctx.AddError(err)
	}
	return ctx
}
