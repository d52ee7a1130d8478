package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check with errors.Is; the typed errors below unwrap to them.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRating = errors.New("invalid rating")
	ErrValidation    = errors.New("validation error")
	ErrAlreadyExists = errors.New("already exists")
)

// NotFoundError reports a reference to a record absent from the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewCardNotFound is the NotFoundError returned for unknown card ids.
func NewCardNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "card", ID: id}
}

// InvalidRatingError reports a rating outside easy, medium and hard.
type InvalidRatingError struct {
	Value string
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("invalid rating %q: must be easy, medium or hard", e.Value)
}

func (e *InvalidRatingError) Unwrap() error { return ErrInvalidRating }

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
