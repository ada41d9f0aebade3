package mediary

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every ArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError reports a missing required argument. It is returned before
// any cache access or execution takes place.
type ArgumentError struct {
	// Arg names the missing argument, e.g. "query" or "context".
	Arg string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s cannot be nil", ErrInvalidArgument, e.Arg)
}

// Unwrap returns ErrInvalidArgument.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// ErrUnexpectedResult indicates a decorator replaced a result with a value of the wrong type.
var ErrUnexpectedResult = errors.New("decorator returned unexpected result type")
