package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/mscript/internal/ast"
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/symbols"
	"github.com/funvibe/mscript/internal/typesystem"
)

const kitchenSink = `
struct Vec2 { x: float; y: float; }
struct Shape { points: Vec2[]; color: Color; name: string; }
enum Color { Red, Green = 5, Blue }
var counter: int = 0;
var origin = Vec2{x: 0.0, y: 0.0};
fn add(a: int, b: int) -> int { return a + b; }
fn area(s: Shape) -> float {
	var total = 0.0;
	for (var i = 0; i + 1 < len(s.points); i += 1) {
		var p = s.points[i];
		var q = s.points[i + 1];
		total += p.x * q.y - q.x * p.y;
	}
	if (total < 0.0) { total = -total; }
	return total / 2.0;
}
fn main() {
	var v = Vec2{x: 1.0, y: 2.0};
	var xs: int[] = [];
	xs = append(xs, len(xs));
	for (var i = 0; i < 3; i += 1) { if (i == 1) { continue; } }
	while (true) { break; }
	v.x = float(counter) * 2.0;
	var s = Shape{points: [origin, v], color: Color.Blue};
	s.points[1].y -= 1.0;
	counter = add(counter, int(s.color)) % 7;
}
`

func TestCompileKitchenSink(t *testing.T) {
	prog := compileSource(t, kitchenSink)

	if len(prog.Structs) != 2 || len(prog.Enums) != 1 || len(prog.Globals) != 2 {
		t.Fatalf("unexpected layout: %d structs, %d enums, %d globals", len(prog.Structs), len(prog.Enums), len(prog.Globals))
	}
	for _, name := range []string{"add", "area", "main"} {
		if _, ok := prog.Function(name); !ok {
			t.Errorf("function %s missing", name)
		}
	}
	if prog.Init == nil {
		t.Fatalf("missing global initializer")
	}
	if _, ok := prog.Struct("Vec2"); !ok {
		t.Errorf("struct Vec2 missing")
	}
	if _, ok := prog.Enum("Color"); !ok {
		t.Errorf("enum Color missing")
	}
	if _, ok := prog.GlobalIndex("origin"); !ok {
		t.Errorf("global origin missing")
	}
	for _, fn := range prog.Functions {
		if len(fn.Chunk.Lines) != len(fn.Chunk.Code) || len(fn.Chunk.Columns) != len(fn.Chunk.Code) {
			t.Errorf("%s: position table does not match code", fn.Name)
		}
	}
}

func TestConstantPoolIsDeduplicated(t *testing.T) {
	prog := compileSource(t, `
fn a() -> int { return 1000 + 1000 + 1000; }
fn b() -> string { return "x" + "x"; }
fn c() -> float { return 2.5 * 2.5; }
fn d() -> int { return 1000; }
`)
	counts := map[string]int{}
	for _, c := range prog.Constants {
		counts[c.Inspect()]++
	}
	for k, n := range counts {
		if n > 1 {
			t.Errorf("constant %s appears %d times", k, n)
		}
	}
	if len(prog.Constants) != 3 {
		t.Errorf("expected 3 constants, got %d: %v", len(prog.Constants), prog.Constants)
	}
}

func TestIntAndFloatConstantsStayDistinct(t *testing.T) {
	prog := compileSource(t, `
fn a() -> int { return 0; }
fn b() -> float { return 0.0; }
`)
	var ints, floats int
	for _, c := range prog.Constants {
		switch c.Type {
		case ValInt:
			ints++
		case ValFloat:
			floats++
		}
	}
	if ints != 1 || floats != 1 {
		t.Errorf("expected one int and one float constant, got %v", prog.Constants)
	}
}

func TestFunctionsAreCalledByIndex(t *testing.T) {
	prog := compileSource(t, `
fn later() -> int { return earlier() + 1; }
fn earlier() -> int { return 1; }
`)
	later, _ := prog.Function("later")
	earlier, _ := prog.Function("earlier")
	code := later.Chunk.Code
	if Opcode(code[0]) != OP_CALL {
		t.Fatalf("expected CALL first, got %s", Opcode(code[0]))
	}
	if idx := later.Chunk.ReadU16(1); prog.Functions[idx] != earlier {
		t.Errorf("CALL operand %d does not name earlier", idx)
	}
}

func TestTypedOpcodes(t *testing.T) {
	prog := compileSource(t, `
fn i(a: int, b: int) -> int { return a + b; }
fn f(a: float, b: float) -> float { return a + b; }
fn s(a: string, b: string) -> string { return a + b; }
`)
	tests := map[string]Opcode{"i": OP_ADD_INT, "f": OP_ADD_FLOAT, "s": OP_CONCAT}
	for name, want := range tests {
		fn, _ := prog.Function(name)
		if !strings.Contains(DisassembleFunction(prog, fn), want.String()) {
			t.Errorf("%s: expected %s in\n%s", name, want, DisassembleFunction(prog, fn))
		}
	}
}

func TestUnresolvedASTIsCompileFailure(t *testing.T) {
	ctx := pipeline.NewPipelineContext(`fn f() -> int { return 1; }`)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if err := ctx.Err(); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	// Skipping analysis leaves the compiler without resolutions.
	c := NewCompiler(symbols.NewSymbolTable(), map[ast.Node]typesystem.Type{}, map[ast.Node]symbols.Symbol{})
	prog, err := c.Compile(ctx.AstRoot, "broken", nil)
	if prog != nil {
		t.Errorf("expected no program")
	}
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) || de.Code != diagnostics.ErrC001 {
		t.Fatalf("expected C001, got %v", err)
	}
	if de.Kind() != diagnostics.CompileFail {
		t.Errorf("expected CompileError kind, got %s", de.Kind())
	}
}
