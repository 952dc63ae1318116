package client

import (
	"errors"
	"fmt"
)

// TransportError is returned by Get when the request fails on the network
// or the provider answers with a non-success status.
type TransportError struct {
	// StatusCode is zero for network failures.
	StatusCode int
	Class      ErrorClass

	// Message carries the HTTP status text (e.g. "503 Service Unavailable")
	// or a short description of the failed step.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("transport %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassOf returns the ErrorClass of a *TransportError anywhere in err's
// chain, or "" when err is not a transport error.
func ClassOf(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class
	}
	return ""
}
