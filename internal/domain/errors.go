package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel all precondition failures wrap, so
// callers can branch with errors.Is without matching messages.
var ErrValidation = errors.New("validation failed")

// ValidationError identifies the offending field of a domain-range
// violation. Out-of-range score inputs are rejected, not clamped;
// clamping happens only where it is a documented scoring step.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError for a field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
