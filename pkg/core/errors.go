package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrBackend marks failures of the persistence backend itself.
	ErrBackend = errors.New("backend failure")
	// ErrUnflushed is returned when an operation would discard mutations
	// that never reached the backend.
	ErrUnflushed = errors.New("cache has unflushed changes")
)

// BackendError reports a failed read or write against the backend.
// The in-memory state may be ahead of the persisted state when Op is "write".
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackend) true for every BackendError.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
