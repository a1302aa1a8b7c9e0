package domain

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrAuth              = errors.New("authentication failed")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrVersionConflict   = errors.New("version conflict")

	ErrNoBoxes           = errors.New("shipment has no boxes")
	ErrLabelsMissing     = errors.New("one or more boxes have no shipping label")
	ErrPackingMismatch   = errors.New("packed boxes do not cover the estimated box count")
	ErrSignatureRequired = errors.New("pickup requires first name, last name and signature")
)

// TransitionError reports an event that is not defined for the current status
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s is not allowed from %s", e.Event, e.From)
}

// Is makes errors.Is(err, ErrInvalidTransition) true
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StaleStateError reports a request made against an older version of a job.
// Another change was accepted in between, so the request is rejected like an
// undefined transition.
type StaleStateError struct {
	Expected int64
	Actual   int64
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("invalid transition: job changed since version %d (now %d)", e.Expected, e.Actual)
}

func (e *StaleStateError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError carries the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError returns a ValidationError for field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
