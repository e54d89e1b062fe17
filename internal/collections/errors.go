package collections

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrFetch marks a failed collection load; the previous items are kept.
	ErrFetch = errors.New("fetch failed")
	// ErrMutation marks a write the remote store rejected.
	ErrMutation = errors.New("mutation failed")
	// ErrPartial marks a multi-step operation whose first step committed and a
	// later step failed. Nothing is rolled back.
	ErrPartial = errors.New("partially applied")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PartialError reports the step that failed after earlier steps committed.
// The inconsistency is reconciled by a retry or by the next fetch.
type PartialError struct {
	Op   string
	Step string
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Op, e.Step, e.Err)
}

func (e *PartialError) Unwrap() []error { return []error{ErrPartial, e.Err} }
