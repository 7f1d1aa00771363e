package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexOutOfRange is returned when an edit targets a position the
	// collection does not have.
	ErrIndexOutOfRange = errors.New("credential index out of range")

	// ErrOperationInFlight is returned when the same mutation is triggered
	// again before the previous call returned.
	ErrOperationInFlight = errors.New("operation already in progress")
)

// ValidationError reports required fields left empty on save.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// UserMessage is the text shown to the user for a failed save.
func (e *ValidationError) UserMessage() string {
	return "Please fill in all fields."
}

// PersistenceError wraps a read or write failure of the KV store.
type PersistenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MalformedDataError reports a persisted value with an unexpected shape.
type MalformedDataError struct {
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed credential data: %s: %v", e.Reason, e.Err)
	}
	return "malformed credential data: " + e.Reason
}

func (e *MalformedDataError) Unwrap() error { return e.Err }
