package typesystem

import "fmt"

// SymbolNotFoundError indicates a symbol was not found
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Name)
}

func NewSymbolNotFoundError(name string) *SymbolNotFoundError {
	return &SymbolNotFoundError{Name: name}
}

// MismatchError reports an expected type that differs from the actual one.
type MismatchError struct {
	Expected Type
	Actual   Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, got %s", typeName(e.Expected), typeName(e.Actual))
}

// Check returns a MismatchError unless expected and actual are equal.
func Check(expected, actual Type) error {
	if Equal(expected, actual) {
		return nil
	}
	return &MismatchError{Expected: expected, Actual: actual}
}

func typeName(t Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
