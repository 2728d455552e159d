package vm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/funvibe/mscript/internal/config"
)

func TestAddRoundTrip(t *testing.T) {
	vm := newTestVM(t, `fn add(a: int, b: int) -> int { return a + b; }`)

	tests := []struct {
		a, b, want int64
	}{
		{2, 3, 5},
		{-1, 1, 0},
		{math.MaxInt64, 1, math.MinInt64},
	}
	for _, tt := range tests {
		expectInt(t, vm, tt.want, "add", IntVal(tt.a), IntVal(tt.b))
	}
}

func TestArithmetic(t *testing.T) {
	vm := newTestVM(t, `
fn ints() -> int { return 7 / 2 + 7 % 3 * 10 - -4; }
fn negDiv() -> int { return -7 / 2; }
fn negMod() -> int { return -7 % 3; }
fn floats() -> float { return 1.5 * 2.0 + 0.25 / 0.5 - 1.0; }
fn hex() -> int { return 0xff; }
fn precedence() -> bool { return 1 + 2 * 3 == 7 && !(2 < 1) || false; }
`)
	expectInt(t, vm, 3+10+4, "ints")
	expectInt(t, vm, -3, "negDiv")
	expectInt(t, vm, -1, "negMod")
	expectInt(t, vm, 255, "hex")

	if got := run(t, vm, "floats"); got.AsFloat() != 2.5 {
		t.Errorf("floats() = %s, want 2.5", got.Inspect())
	}
	if got := run(t, vm, "precedence"); !got.AsBool() {
		t.Errorf("precedence() = %s, want true", got.Inspect())
	}
}

func TestFloatDivisionFollowsIEEE(t *testing.T) {
	vm := newTestVM(t, `
fn div(a: float, b: float) -> float { return a / b; }
fn same(a: float) -> bool { return a == a; }
`)
	if got := run(t, vm, "div", FloatVal(1), FloatVal(0)); !math.IsInf(got.AsFloat(), 1) {
		t.Errorf("1.0 / 0.0 = %s, want +Inf", got.Inspect())
	}
	if got := run(t, vm, "same", FloatVal(math.NaN())); got.AsBool() {
		t.Errorf("NaN == NaN should be false")
	}
}

func TestStringsAndComparisons(t *testing.T) {
	vm := newTestVM(t, `
fn greet(name: string) -> string { return "hello, " + name; }
fn size(s: string) -> int { return len(s); }
fn less(a: string, b: string) -> bool { return a < b; }
fn eq(a: bool, b: bool) -> bool { return a == b; }
fn isNull(p: voidptr) -> bool { var q: voidptr; return p == q; }
`)
	if got := run(t, vm, "greet", StringVal("mscript")); got.AsString() != "hello, mscript" {
		t.Errorf("greet() = %s", got.Inspect())
	}
	expectInt(t, vm, 5, "size", StringVal("héll"))
	if got := run(t, vm, "less", StringVal("abc"), StringVal("abd")); !got.AsBool() {
		t.Errorf(`"abc" < "abd" should be true`)
	}
	if got := run(t, vm, "eq", BoolVal(true), BoolVal(false)); got.AsBool() {
		t.Errorf("true == false should be false")
	}
	if got := run(t, vm, "isNull", PointerVal(nil)); !got.AsBool() {
		t.Errorf("null pointer should equal the zero voidptr")
	}
	host := new(int)
	if got := run(t, vm, "isNull", PointerVal(host)); got.AsBool() {
		t.Errorf("a host pointer should not equal the zero voidptr")
	}
}

func TestShortCircuit(t *testing.T) {
	vm := newTestVM(t, `
var calls: int;
fn touch() -> bool { calls += 1; return true; }
fn skipAnd() -> bool { return false && touch(); }
fn skipOr() -> bool { return true || touch(); }
fn both() -> bool { return touch() && touch(); }
`)
	run(t, vm, "skipAnd")
	run(t, vm, "skipOr")
	if got, _ := vm.Global("calls"); got.AsInt() != 0 {
		t.Fatalf("short-circuited operands were evaluated %d time(s)", got.AsInt())
	}
	if got := run(t, vm, "both"); !got.AsBool() {
		t.Errorf("both() = %s", got.Inspect())
	}
	if got, _ := vm.Global("calls"); got.AsInt() != 2 {
		t.Errorf("calls = %d, want 2", got.AsInt())
	}
}

func TestControlFlow(t *testing.T) {
	vm := newTestVM(t, `
fn sumTo(n: int) -> int {
	var total = 0;
	for (var i = 1; i <= n; i += 1) {
		if (i % 2 == 0) { continue; }
		total += i;
	}
	return total;
}
fn firstOver(limit: int) -> int {
	var i = 0;
	while (true) {
		i += 1;
		if (i * i > limit) { break; }
	}
	return i;
}
fn classify(n: int) -> int {
	if (n < 0) { return -1; } else if (n == 0) { return 0; } else { return 1; }
}
fn nested() -> int {
	var count = 0;
	for (var i = 0; i < 3; i += 1) {
		var j = 0;
		while (j < 3) {
			j += 1;
			if (j == 2) { continue; }
			count += 1;
		}
	}
	return count;
}
`)
	expectInt(t, vm, 1+3+5+7+9, "sumTo", IntVal(10))
	expectInt(t, vm, 8, "firstOver", IntVal(50))
	expectInt(t, vm, -1, "classify", IntVal(-5))
	expectInt(t, vm, 0, "classify", IntVal(0))
	expectInt(t, vm, 1, "classify", IntVal(9))
	expectInt(t, vm, 6, "nested")
}

func TestScopesReuseSlots(t *testing.T) {
	prog := compileSource(t, `
fn f() -> int {
	var a = 1;
	{ var b = 2; a += b; }
	{ var c = 3; var d = 4; a += c + d; }
	return a;
}
`)
	fn, _ := prog.Function("f")
	if fn.LocalCount != 3 {
		t.Errorf("LocalCount = %d, want 3", fn.LocalCount)
	}
	vm := New(prog, config.Default().VM)
	expectInt(t, vm, 10, "f")
}

func TestMutualRecursion(t *testing.T) {
	vm := newTestVM(t, `
fn isEven(n: int) -> bool { if (n == 0) { return true; } return isOdd(n - 1); }
fn isOdd(n: int) -> bool { if (n == 0) { return false; } return isEven(n - 1); }
fn fib(n: int) -> int { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); }
`)
	if got := run(t, vm, "isEven", IntVal(10)); !got.AsBool() {
		t.Errorf("isEven(10) = %s", got.Inspect())
	}
	if got := run(t, vm, "isOdd", IntVal(7)); !got.AsBool() {
		t.Errorf("isOdd(7) = %s", got.Inspect())
	}
	expectInt(t, vm, 55, "fib", IntVal(10))
}

func TestStructsAreValues(t *testing.T) {
	vm := newTestVM(t, `
struct P { x: int; y: int; }
struct Line { a: P; b: P; }
fn copyOnAssign() -> int {
	var a = P{x: 1, y: 2};
	var b = a;
	b.x = 10;
	return a.x * 100 + b.x;
}
fn bump(p: P) -> int { p.x = 99; return p.x; }
fn copyOnCall() -> int {
	var a = P{x: 1};
	var r = bump(a);
	return a.x + r;
}
fn nested() -> int {
	var l = Line{a: P{x: 1, y: 2}};
	var p = l.a;
	l.a.y = 7;
	return p.y * 10 + l.a.y;
}
fn make(x: int) -> P { return P{y: x}; }
`)
	expectInt(t, vm, 110, "copyOnAssign")
	expectInt(t, vm, 100, "copyOnCall")
	expectInt(t, vm, 27, "nested")

	got := run(t, vm, "make", IntVal(4))
	if want := ObjectVal(IntVal(0), IntVal(4)); !got.Equal(want) {
		t.Errorf("make(4) = %s, want %s", got.Inspect(), want.Inspect())
	}
}

func TestArrays(t *testing.T) {
	vm := newTestVM(t, `
struct Bag { items: int[]; }
fn build(n: int) -> int[] {
	var xs: int[] = [];
	for (var i = 0; i < n; i += 1) { xs = append(xs, i * i); }
	return xs;
}
fn appendKeepsOriginal() -> int {
	var xs = [1, 2];
	var ys = append(xs, 3);
	return len(xs) * 10 + len(ys);
}
fn grid() -> int {
	var g = [[1, 2], [3, 4]];
	var row = g[1];
	g[1][0] = 30;
	return row[0] * 100 + g[1][0];
}
fn bag() -> int {
	var b = Bag{items: [5]};
	b.items[0] += 1;
	b.items = append(b.items, 7);
	return b.items[0] * 10 + len(b.items);
}
fn sum(xs: int[]) -> int {
	var total = 0;
	for (var i = 0; i < len(xs); i += 1) { total += xs[i]; }
	return total;
}
`)
	got := run(t, vm, "build", IntVal(4))
	if want := ArrayVal(IntVal(0), IntVal(1), IntVal(4), IntVal(9)); !got.Equal(want) {
		t.Errorf("build(4) = %s, want %s", got.Inspect(), want.Inspect())
	}
	expectInt(t, vm, 23, "appendKeepsOriginal")
	expectInt(t, vm, 330, "grid")
	expectInt(t, vm, 62, "bag")
	expectInt(t, vm, 10, "sum", ArrayVal(IntVal(1), IntVal(2), IntVal(3), IntVal(4)))
}

func TestHostArgumentsAreNotModified(t *testing.T) {
	vm := newTestVM(t, `
struct P { x: int; }
fn clobber(ps: P[]) -> int { ps[0].x = 42; return ps[0].x; }
`)
	arg := ArrayVal(ObjectVal(IntVal(1)))
	expectInt(t, vm, 42, "clobber", arg)
	if x := arg.Elems()[0].Elems()[0].AsInt(); x != 1 {
		t.Errorf("caller's argument was modified: x = %d", x)
	}
}

func TestEnumsAndCasts(t *testing.T) {
	vm := newTestVM(t, `
enum Color { Red, Green = 5, Blue }
fn blue() -> int { return int(Color.Blue); }
fn pick(c: Color) -> int { if (c == Color.Green) { return 1; } return 0; }
fn zero() -> Color { var c: Color; return c; }
fn trunc(f: float) -> int { return int(f); }
fn widen(i: int) -> float { return float(i); }
fn flag(b: bool) -> int { return int(b); }
`)
	expectInt(t, vm, 6, "blue")
	expectInt(t, vm, 1, "pick", IntVal(5))
	expectInt(t, vm, 0, "zero")
	expectInt(t, vm, -2, "trunc", FloatVal(-2.9))
	expectInt(t, vm, 1, "flag", BoolVal(true))
	if got := run(t, vm, "widen", IntVal(3)); got.AsFloat() != 3.0 {
		t.Errorf("widen(3) = %s", got.Inspect())
	}

	_, err := vm.Run(context.Background(), "trunc", FloatVal(math.NaN()))
	expectFault(t, err, ErrConversion)
	_, err = vm.Run(context.Background(), "trunc", FloatVal(1e300))
	expectFault(t, err, ErrConversion)

	_, err = vm.Run(context.Background(), "pick", IntVal(3))
	ce := expectCallError(t, err, TypeError)
	if !strings.Contains(ce.Message, "not a member of enum Color") {
		t.Errorf("unexpected message: %s", ce.Message)
	}
}

func TestGlobalRetention(t *testing.T) {
	source := `
var counter: int = 0;
fn next() -> int { counter += 1; return counter; }
`
	prog := compileSource(t, source)

	vm := New(prog, config.Default().VM)
	expectInt(t, vm, 1, "next")
	expectInt(t, vm, 2, "next")

	for i := 0; i < 2; i++ {
		fresh := New(prog, config.Default().VM)
		expectInt(t, fresh, 1, "next")
	}
}

func TestGlobalInitializers(t *testing.T) {
	vm := newTestVM(t, `
struct P { x: int; y: float; }
enum Mode { Off = 2, On }
var p = P{y: -1.5};
var mode: Mode = Mode.On;
var names = ["a", "b"];
var unset: string;
fn describe() -> string { return names[1] + unset; }
`)
	p, ok := vm.Global("p")
	if !ok || !p.Equal(ObjectVal(IntVal(0), FloatVal(-1.5))) {
		t.Errorf("p = %s", p.Inspect())
	}
	if mode, _ := vm.Global("mode"); mode.AsInt() != 3 {
		t.Errorf("mode = %s, want 3", mode.Inspect())
	}
	if got := run(t, vm, "describe"); got.AsString() != "b" {
		t.Errorf("describe() = %s", got.Inspect())
	}
	if _, ok := vm.Global("missing"); ok {
		t.Errorf("Global(missing) should not be found")
	}

	// Global returns a copy.
	names, _ := vm.Global("names")
	names.Elems()[0] = StringVal("z")
	again, _ := vm.Global("names")
	if again.Elems()[0].AsString() != "a" {
		t.Errorf("global was modified through the returned value")
	}
}

func TestRunBoundaryErrors(t *testing.T) {
	vm := newTestVM(t, `
var calls: int;
fn add(a: int, b: int) -> int { calls += 1; return a + b; }
`)
	ctx := context.Background()

	_, err := vm.Run(ctx, "missing")
	expectCallError(t, err, NameError)

	_, err = vm.Run(ctx, "add", IntVal(1))
	expectCallError(t, err, ArityError)
	_, err = vm.Run(ctx, "add", IntVal(1), IntVal(2), IntVal(3))
	expectCallError(t, err, ArityError)

	_, err = vm.Run(ctx, "add", IntVal(1), FloatVal(2))
	expectCallError(t, err, TypeError)

	if calls, _ := vm.Global("calls"); calls.AsInt() != 0 {
		t.Fatalf("rejected runs executed code: calls = %d", calls.AsInt())
	}
	if _, err := vm.Run(ctx, config.InitFuncName); err == nil {
		t.Errorf("the global initializer must not be callable")
	}
}

func TestArgumentShapeValidation(t *testing.T) {
	vm := newTestVM(t, `
struct P { x: int; tags: string[]; }
fn f(p: P) -> int { return p.x; }
`)
	tests := []struct {
		name string
		arg  Value
	}{
		{"wrong member count", ObjectVal(IntVal(1))},
		{"wrong member type", ObjectVal(FloatVal(1), ArrayVal())},
		{"wrong element type", ObjectVal(IntVal(1), ArrayVal(IntVal(2)))},
		{"array for object", ArrayVal(IntVal(1))},
		{"object without storage", Value{Type: ValObject}},
		{"array without storage", ObjectVal(IntVal(1), Value{Type: ValArray})},
		{"string without text", ObjectVal(IntVal(1), ArrayVal(Value{Type: ValString}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vm.Run(context.Background(), "f", tt.arg)
			expectCallError(t, err, TypeError)
		})
	}
	expectInt(t, vm, 7, "f", ObjectVal(IntVal(7), ArrayVal(StringVal("a"))))
}

func TestMalformedBoolIsRejected(t *testing.T) {
	vm := newTestVM(t, `fn isTrue(x: bool) -> bool { return x == true; }`)
	_, err := vm.Run(context.Background(), "isTrue", Value{Type: ValBool, Data: 2})
	expectCallError(t, err, TypeError)
	if got := run(t, vm, "isTrue", BoolVal(true)); !got.AsBool() {
		t.Errorf("expected true")
	}
}

func TestIndexOutOfRangeKeepsVMUsable(t *testing.T) {
	vm := newTestVM(t, `
fn at(xs: int[], i: int) -> int { return xs[i]; }
fn set(i: int) -> int { var xs = [1, 2]; xs[i] = 5; return xs[0]; }
`)
	xs := ArrayVal(IntVal(1), IntVal(2), IntVal(3))

	_, err := vm.Run(context.Background(), "at", xs, IntVal(3))
	f := expectFault(t, err, ErrIndexOutOfRange)
	if f.Function != "at" || f.Line != 2 {
		t.Errorf("fault position = %s %d:%d", f.Function, f.Line, f.Column)
	}
	_, err = vm.Run(context.Background(), "at", xs, IntVal(-1))
	expectFault(t, err, ErrIndexOutOfRange)
	_, err = vm.Run(context.Background(), "set", IntVal(2))
	expectFault(t, err, ErrIndexOutOfRange)

	expectInt(t, vm, 3, "at", xs, IntVal(2))
	expectInt(t, vm, 5, "set", IntVal(0))
}

func TestDivisionByZero(t *testing.T) {
	vm := newTestVM(t, `
fn div(a: int, b: int) -> int { return a / b; }
fn mod(a: int, b: int) -> int { return a % b; }
`)
	_, err := vm.Run(context.Background(), "div", IntVal(1), IntVal(0))
	expectFault(t, err, ErrDivisionByZero)
	_, err = vm.Run(context.Background(), "mod", IntVal(1), IntVal(0))
	expectFault(t, err, ErrDivisionByZero)
	expectInt(t, vm, math.MinInt64, "div", IntVal(math.MinInt64), IntVal(-1))
	expectInt(t, vm, 0, "mod", IntVal(math.MinInt64), IntVal(-1))
}

func TestMinIntLiteral(t *testing.T) {
	vm := newTestVM(t, `
var lo: int = -9223372036854775808;
fn low() -> int { return lo; }
fn wrap() -> int { return -9223372036854775808 / -1; }
fn hex() -> int { return -0x8000000000000000 + 1; }
`)
	expectInt(t, vm, math.MinInt64, "low")
	expectInt(t, vm, math.MinInt64, "wrap")
	expectInt(t, vm, math.MinInt64+1, "hex")
}

func TestUnboundedRecursionOverflows(t *testing.T) {
	vm := newTestVM(t, `
fn down(n: int) -> int { return down(n + 1) + 1; }
fn ok() -> int { return 1; }
`)
	_, err := vm.Run(context.Background(), "down", IntVal(0))
	f := expectFault(t, err, ErrStackOverflow)
	if len(f.Trace) != config.DefaultMaxCallDepth {
		t.Errorf("trace has %d entries, want %d", len(f.Trace), config.DefaultMaxCallDepth)
	}
	if !strings.Contains(f.Error(), "more") {
		t.Errorf("long traces should be abbreviated: %s", f.Error())
	}
	expectInt(t, vm, 1, "ok")
}

func TestOperandStackLimit(t *testing.T) {
	cfg := config.Default().VM
	cfg.MaxStackSize = 64
	cfg.MaxCallDepth = 10000
	vm := New(compileSource(t, `fn down(n: int) -> int { return down(n + 1); }`), cfg)

	_, err := vm.Run(context.Background(), "down", IntVal(0))
	f := expectFault(t, err, ErrStackOverflow)
	if !strings.Contains(f.Message, "operand stack") {
		t.Errorf("unexpected message: %s", f.Message)
	}
}

func TestFaultTrace(t *testing.T) {
	vm := newTestVM(t, `fn inner(xs: int[]) -> int {
	return xs[5];
}
fn outer() -> int {
	return inner([1]);
}`)
	_, err := vm.Run(context.Background(), "outer")
	f := expectFault(t, err, ErrIndexOutOfRange)
	if len(f.Trace) != 2 || f.Trace[0].Function != "inner" || f.Trace[1].Function != "outer" {
		t.Fatalf("unexpected trace: %+v", f.Trace)
	}
	if f.Trace[0].Line != 2 || f.Trace[1].Line != 5 {
		t.Errorf("unexpected trace lines: %+v", f.Trace)
	}
	if !strings.HasPrefix(f.Error(), "RuntimeFault at inner 2:") {
		t.Errorf("unexpected message: %s", f.Error())
	}
}

const faultingCounter = `
var counter: int = 0;
var log: int[];
fn bumpThenFail() -> int {
	counter += 1;
	log = append(log, counter);
	return 1 / 0;
}
`

func TestFaultLeavesGlobalsByDefault(t *testing.T) {
	vm := newTestVM(t, faultingCounter)
	_, err := vm.Run(context.Background(), "bumpThenFail")
	expectFault(t, err, ErrDivisionByZero)

	if counter, _ := vm.Global("counter"); counter.AsInt() != 1 {
		t.Errorf("counter = %d, want 1 (partial effects stay visible)", counter.AsInt())
	}
}

func TestRollbackOnFault(t *testing.T) {
	cfg := config.Default().VM
	cfg.RollbackOnFault = true
	vm := New(compileSource(t, faultingCounter), cfg)

	for i := 0; i < 2; i++ {
		_, err := vm.Run(context.Background(), "bumpThenFail")
		expectFault(t, err, ErrDivisionByZero)
	}
	if counter, _ := vm.Global("counter"); counter.AsInt() != 0 {
		t.Errorf("counter = %d, want 0 after rollback", counter.AsInt())
	}
	if log, _ := vm.Global("log"); len(log.Elems()) != 0 {
		t.Errorf("log = %s, want []", log.Inspect())
	}
}

func TestInstructionBudget(t *testing.T) {
	cfg := config.Default().VM
	cfg.MaxInstructions = 10000
	vm := New(compileSource(t, `
fn spin() { while (true) { } }
fn quick() -> int { return 2; }
`), cfg)

	_, err := vm.Run(context.Background(), "spin")
	expectFault(t, err, ErrBudgetExhausted)
	expectInt(t, vm, 2, "quick")
}

func TestCancellation(t *testing.T) {
	vm := newTestVM(t, `
fn spin() { while (true) { } }
fn quick() -> int { return 2; }
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := vm.Run(ctx, "spin")
	expectFault(t, err, context.Canceled)
	expectInt(t, vm, 2, "quick")
}

func TestNatives(t *testing.T) {
	var logged []string
	natives := []hostFunc{
		{"fn hostLog(msg: string)", func(ctx context.Context, args []Value) (Value, error) {
			logged = append(logged, args[0].AsString())
			return VoidVal(), nil
		}},
		{"fn twice(x: int) -> int", func(ctx context.Context, args []Value) (Value, error) {
			return IntVal(args[0].AsInt() * 2), nil
		}},
		{"fn broken() -> int", func(ctx context.Context, args []Value) (Value, error) {
			return StringVal("not an int"), nil
		}},
		{"fn failing() -> int", func(ctx context.Context, args []Value) (Value, error) {
			return VoidVal(), errors.New("disk on fire")
		}},
		{"fn panicky()", func(ctx context.Context, args []Value) (Value, error) {
			panic("boom")
		}},
	}
	vm := newTestVM(t, `
fn main() -> int { hostLog("start"); return twice(21); }
fn useBroken() -> int { return broken(); }
fn useFailing() -> int { return failing(); }
fn usePanicky() { panicky(); }
`, natives...)

	expectInt(t, vm, 42, "main")
	if len(logged) != 1 || logged[0] != "start" {
		t.Errorf("logged = %v", logged)
	}

	_, err := vm.Run(context.Background(), "useBroken")
	expectFault(t, err, ErrNativeFailed)

	_, err = vm.Run(context.Background(), "useFailing")
	f := expectFault(t, err, ErrNativeFailed)
	if !strings.Contains(f.Message, "disk on fire") {
		t.Errorf("unexpected message: %s", f.Message)
	}

	_, err = vm.Run(context.Background(), "usePanicky")
	expectFault(t, err, ErrNativeFailed)

	expectInt(t, vm, 42, "main")
}

func TestUnboundNativeFaults(t *testing.T) {
	vm := newTestVM(t, `fn f() -> int { return host(); }`, hostFunc{proto: "fn host() -> int"})
	_, err := vm.Run(context.Background(), "f")
	f := expectFault(t, err, ErrNativeFailed)
	if !strings.Contains(f.Message, "not bound") {
		t.Errorf("unexpected message: %s", f.Message)
	}
}

func TestIdenticalSourcesBehaveIdentically(t *testing.T) {
	source := `
var total: int;
fn acc(x: int) -> int { total += x; return total * 2; }
`
	a := New(compileSource(t, source), config.Default().VM)
	b := New(compileSource(t, source), config.Default().VM)
	for _, x := range []int64{1, 5, -3, 100} {
		ra := run(t, a, "acc", IntVal(x))
		rb := run(t, b, "acc", IntVal(x))
		if !ra.Equal(rb) {
			t.Fatalf("acc(%d): %s vs %s", x, ra.Inspect(), rb.Inspect())
		}
	}
	if a.Program() == b.Program() || a.Program().ID == b.Program().ID {
		t.Errorf("separate loads should produce separate programs")
	}
}

func TestVoidFunctionReturnsVoid(t *testing.T) {
	vm := newTestVM(t, `
var hits: int;
fn hit() { hits += 1; if (hits > 1) { return; } hits += 10; }
`)
	if got := run(t, vm, "hit"); !got.IsVoid() {
		t.Errorf("hit() = %s, want void", got.Inspect())
	}
	run(t, vm, "hit")
	if hits, _ := vm.Global("hits"); hits.AsInt() != 12 {
		t.Errorf("hits = %d, want 12", hits.AsInt())
	}
}
