package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownIdentifier is returned for names outside the namespace and the caller's variables.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrUnknownFunction is returned for calls to functions outside the namespace.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrDivisionByZero is returned for x/0.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrDomain is returned when a function is applied outside its real domain.
	ErrDomain = errors.New("math domain error")

	// ErrOverflow is returned when a finite input produces an infinite result.
	ErrOverflow = errors.New("numerical result out of range")

	// ErrShape is returned for array operands with incompatible dimensions.
	ErrShape = errors.New("incompatible array shapes")
)

// SyntaxError reports malformed input with its rune offset.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
