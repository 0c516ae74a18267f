package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMode is returned for modes other than standard, cas, matrix and auto.
	ErrUnsupportedMode = errors.New("unsupported computation mode")

	// ErrUnsupportedOperation is returned by RunCAS for unknown operations.
	ErrUnsupportedOperation = errors.New("unsupported CAS operation")

	// ErrTooLong is returned when an expression exceeds Options.MaxExprLength.
	ErrTooLong = errors.New("expression too long")

	// ErrTimeout is returned when a symbolic operation exceeds Options.CASTimeout.
	ErrTimeout = errors.New("computation timed out")
)

// ClientError wraps failures caused by the caller's input. Transport layers
// report them as bad requests.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string { return e.Err.Error() }

func (e *ClientError) Unwrap() error { return e.Err }

// IsClientError reports whether err carries a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

func clientError(err error) error {
	if err == nil || IsClientError(err) {
		return err
	}
	return &ClientError{Err: err}
}

func clientErrorf(format string, args ...any) error {
	return &ClientError{Err: fmt.Errorf(format, args...)}
}
