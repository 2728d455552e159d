package mscript

import (
	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/vm"
)

// Value is a runtime value exchanged with scripts.
type Value = vm.Value

// NativeFunc implements a host capability bound with System.Bind.
type NativeFunc = vm.NativeFunc

// Program is an immutable compiled script. It may be shared between
// goroutines and used by any number of VMs.
type Program = vm.Program

// Compile-time errors. Compile and LoadProgram return a Diagnostics list.
type (
	Diagnostic     = diagnostics.DiagnosticError
	Diagnostics    = diagnostics.ErrorList
	DiagnosticKind = diagnostics.Kind
)

// Diagnostic kinds. TypeCheckError is the compile-time TypeError; the
// run-boundary TypeError is a CallErrorKind.
const (
	LexError       = diagnostics.LexError
	SyntaxError    = diagnostics.SyntaxError
	TypeCheckError = diagnostics.TypeError
)

// Errors surfaced by runs.
type (
	Fault         = vm.Fault
	CallError     = vm.CallError
	CallErrorKind = vm.CallErrorKind
)

const (
	NameError  = vm.NameError
	ArityError = vm.ArityError
	TypeError  = vm.TypeError
)

// Fault causes, for errors.Is.
var (
	ErrStackOverflow   = vm.ErrStackOverflow
	ErrIndexOutOfRange = vm.ErrIndexOutOfRange
	ErrDivisionByZero  = vm.ErrDivisionByZero
	ErrBudgetExhausted = vm.ErrBudgetExhausted
	ErrConversion      = vm.ErrConversion
	ErrNativeFailed    = vm.ErrNativeFailed
)

func Int(v int64) Value     { return vm.IntVal(v) }
func Float(v float64) Value { return vm.FloatVal(v) }
func Bool(v bool) Value     { return vm.BoolVal(v) }
func String(s string) Value { return vm.StringVal(s) }

// Pointer wraps an opaque host pointer; nil is the null pointer.
func Pointer(p interface{}) Value { return vm.PointerVal(p) }

// Object builds a struct value from its members in declaration order.
func Object(fields ...Value) Value { return vm.ObjectVal(fields...) }

func Array(elems ...Value) Value { return vm.ArrayVal(elems...) }

// Void is the result of void functions.
func Void() Value { return vm.VoidVal() }
