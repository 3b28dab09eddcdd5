package core

import (
	"errors"
	"fmt"
)

// FatalError marks a session-level failure: the file could not be read,
// the entity type is unknown, or the mapping is not executable. No rows
// were attempted and no ImportResult exists. Row-level errors are never
// wrapped in FatalError; they become RowOutcomes instead.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err is a session-level error, letting callers
// tell "zero rows attempted" apart from "attempted N rows, M failed".
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// ErrMappingIncomplete is returned when execution is requested while a
// required field is still unmapped. This is a precondition failure, not a
// data error.
var ErrMappingIncomplete = errors.New("mapping is incomplete: every required field must be mapped")

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("import session not found")

// ErrUnknownEntity is returned when a request names an entity type the
// schema registry does not carry.
var ErrUnknownEntity = errors.New("unknown entity type")

// ErrInvalidState is returned when an operation is requested in a session
// state that does not permit it.
var ErrInvalidState = errors.New("invalid session state")
