package ports

import (
	"errors"
	"fmt"
)

// Common errors returned by Backend implementations.
var (
	// ErrServiceUnavailable indicates a remote backend (Redis, coprocess)
	// could not be reached.
	ErrServiceUnavailable = errors.New("backend unavailable")

	// ErrTimeout indicates an operation against a remote backend timed out.
	ErrTimeout = errors.New("backend operation timed out")

	// ErrInvalidResponse indicates a coprocess or Redis response did not
	// match the expected wire format.
	ErrInvalidResponse = errors.New("backend returned an invalid response")

	// ErrEdgeSourceExhausted indicates GetEdge was called after the dataset
	// was already fully consumed; Backend implementations instead signal
	// this via the bool return of GetEdge, but callers building their own
	// composite backends may want this sentinel.
	ErrEdgeSourceExhausted = errors.New("edge source exhausted")
)

// BackendError wraps a failure from a concrete Backend implementation with
// the operation and key that were involved.
type BackendError struct {
	Backend   string
	Operation string
	Key       string
	Err       error
}

func (e *BackendError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s backend: %s %s: %v", e.Backend, e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError builds a BackendError for the named backend/operation.
func NewBackendError(backend, operation, key string, err error) *BackendError {
	return &BackendError{Backend: backend, Operation: operation, Key: key, Err: err}
}

// ProtocolError wraps a coprocess line-protocol violation: a response that
// did not start with the expected token, or could not be parsed as the
// expected shape.
type ProtocolError struct {
	Expected string
	Got      string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("coprocess protocol: expected %q, got %q", e.Expected, e.Got)
}
