package ballistics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every FieldError.
	ErrInvalidInput = errors.New("invalid ballistic input")
	// ErrZeroUnreachable is returned when no bore elevation hits the line of sight at the zero range.
	ErrZeroUnreachable = errors.New("zero range cannot be reached with the given load")
)

// FieldError reports a single rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
