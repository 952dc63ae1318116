package listing

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is wrapped by validation errors about the location URL.
var ErrInvalidURL = errors.New("invalid location url")

// ValidationError reports a malformed caller supplied parameter. It is
// surfaced immediately and never retried.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
