package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/funvibe/mscript/internal/analyzer"
	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
)

// hostFunc pairs a native prototype with its implementation.
type hostFunc struct {
	proto string
	fn    NativeFunc
}

// compileSource runs the whole pipeline and fails the test on any diagnostic.
func compileSource(t *testing.T, input string, natives ...hostFunc) *Program {
	t.Helper()
	ctx := pipeline.NewPipelineContext(input)
	ctx.FilePath = "test.ms"
	impls := make(map[string]NativeFunc)
	for _, n := range natives {
		pctx := (&lexer.LexerProcessor{}).Process(pipeline.NewPipelineContext(n.proto))
		fd := parser.ParsePrototype(pctx)
		if fd == nil || len(pctx.Errors) > 0 {
			t.Fatalf("bad prototype %q: %v", n.proto, pctx.Err())
		}
		ctx.Natives = append(ctx.Natives, fd)
		impls[fd.Name.Value] = n.fn
	}
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
		&CompilerProcessor{Natives: impls},
	).Run(ctx)
	if err := ctx.Err(); err != nil {
		t.Fatalf("compilation failed: %v\ninput: %s", err, input)
	}
	return ctx.Program.(*Program)
}

func newTestVM(t *testing.T, input string, natives ...hostFunc) *VM {
	t.Helper()
	return New(compileSource(t, input, natives...), config.Default().VM)
}

// run calls name and fails the test on any error.
func run(t *testing.T, vm *VM, name string, args ...Value) Value {
	t.Helper()
	result, err := vm.Run(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("run %s: %v", name, err)
	}
	return result
}

func expectInt(t *testing.T, vm *VM, want int64, name string, args ...Value) {
	t.Helper()
	got := run(t, vm, name, args...)
	if got.Type != ValInt || got.AsInt() != want {
		t.Errorf("%s() = %s, want %d", name, got.Inspect(), want)
	}
}

// expectFault asserts that err is a RuntimeFault caused by target.
func expectFault(t *testing.T, err error, target error) *Fault {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a fault (%v), got none", target)
	}
	var f *Fault
	if !errors.As(err, &f) {
		t.Fatalf("expected *Fault, got %T: %v", err, err)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected fault cause %v, got: %v", target, err)
	}
	return f
}

func expectCallError(t *testing.T, err error, kind CallErrorKind) *CallError {
	t.Helper()
	var ce *CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CallError, got %T: %v", err, err)
	}
	if ce.Kind != kind {
		t.Fatalf("expected %s, got %s: %v", kind, ce.Kind, err)
	}
	return ce
}
