package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Fault causes. A *Fault unwraps to one of these, or to the context error
// when a run is cancelled.
var (
	ErrStackOverflow   = errors.New("stack overflow")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDivisionByZero  = errors.New("integer division by zero")
	ErrBudgetExhausted = errors.New("instruction budget exhausted")
	ErrMissingReturn   = errors.New("missing return")
	ErrConversion      = errors.New("invalid conversion")
	ErrNativeFailed    = errors.New("native function failed")
	ErrInvalidBytecode = errors.New("invalid bytecode")
)

// CallErrorKind classifies errors detected at the run boundary, before any
// instruction executes.
type CallErrorKind int

const (
	NameError CallErrorKind = iota
	ArityError
	TypeError
)

func (k CallErrorKind) String() string {
	switch k {
	case NameError:
		return "NameError"
	case ArityError:
		return "ArityError"
	default:
		return "TypeError"
	}
}

// CallError reports a run request the program cannot accept: an unknown
// function, a wrong number of arguments or an argument of the wrong shape.
type CallError struct {
	Kind     CallErrorKind
	Function string
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// TraceEntry is one active call at the time of a fault, innermost first.
type TraceEntry struct {
	Function string
	Line     int
	Column   int
}

// maxTraceLines bounds the trace printed by Fault.Error.
const maxTraceLines = 16

// Fault is a RuntimeFault: it aborts the current run only.
type Fault struct {
	Err      error
	Message  string
	Function string
	Line     int
	Column   int
	Trace    []TraceEntry
}

func (f *Fault) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "RuntimeFault at %s %d:%d: %s", f.Function, f.Line, f.Column, f.Message)
	if len(f.Trace) > 0 {
		sb.WriteString("\nStack trace:")
		for i, e := range f.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&sb, "\n  ... %d more", len(f.Trace)-i)
				break
			}
			fmt.Fprintf(&sb, "\n  at %s:%d:%d", e.Function, e.Line, e.Column)
		}
	}
	return sb.String()
}

func (f *Fault) Unwrap() error {
	return f.Err
}
