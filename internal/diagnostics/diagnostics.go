package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/mscript/internal/token"
)

// ErrorCode identifies a diagnostic. The first letter names the phase:
// L lexer, P parser, A analyzer, C compiler.
type ErrorCode string

const (
	ErrL001 ErrorCode = "L001" // invalid character
	ErrL002 ErrorCode = "L002" // unterminated string or comment
	ErrL003 ErrorCode = "L003" // malformed numeric literal

	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected construct missing
	ErrP003 ErrorCode = "P003" // identifier too long
	ErrP004 ErrorCode = "P004" // too many struct members
	ErrP005 ErrorCode = "P005" // too many parameters
	ErrP006 ErrorCode = "P006" // too many call arguments
	ErrP007 ErrorCode = "P007" // nesting too deep

	ErrA001 ErrorCode = "A001" // undefined name
	ErrA002 ErrorCode = "A002" // duplicate declaration
	ErrA003 ErrorCode = "A003" // type mismatch
	ErrA004 ErrorCode = "A004" // unknown type
	ErrA005 ErrorCode = "A005" // recursive struct
	ErrA006 ErrorCode = "A006" // arity mismatch
	ErrA007 ErrorCode = "A007" // missing return
	ErrA008 ErrorCode = "A008" // invalid operand types
	ErrA009 ErrorCode = "A009" // invalid assignment target
	ErrA010 ErrorCode = "A010" // break/continue outside loop
	ErrA011 ErrorCode = "A011" // non-constant global initializer
	ErrA012 ErrorCode = "A012" // unknown member
	ErrA013 ErrorCode = "A013" // duplicate member or enum value
	ErrA014 ErrorCode = "A014" // void used as a value

	ErrC001 ErrorCode = "C001" // internal compiler error
)

// Kind is the error class reported to hosts.
type Kind string

const (
	LexError    Kind = "LexError"
	SyntaxError Kind = "SyntaxError"
	TypeError   Kind = "TypeError"
	NameError   Kind = "NameError"
	ArityError  Kind = "ArityError"
	CompileFail Kind = "CompileError"
)

// Kind maps the code to its host-facing class.
func (c ErrorCode) Kind() Kind {
	if len(c) == 0 {
		return CompileFail
	}
	switch c[0] {
	case 'L':
		return LexError
	case 'P':
		return SyntaxError
	case 'A':
		return TypeError
	}
	return CompileFail
}

// DiagnosticError is a compile-time error tied to a source position.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	File    string
	Message string
}

func NewError(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

func (e *DiagnosticError) Kind() Kind { return e.Code.Kind() }

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(":")
	}
	fmt.Fprintf(&sb, "%d:%d: %s [%s]: %s", e.Token.Line, e.Token.Column, e.Kind(), e.Code, e.Message)
	return sb.String()
}

// ErrorList is the error returned when a load fails. It always has at
// least one entry.
type ErrorList []*DiagnosticError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}

func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
