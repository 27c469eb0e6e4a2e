package task

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing required field")

// MissingFieldError names the absent field. It matches ErrMissingField.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

func missing(field string) error {
	return &MissingFieldError{Field: field}
}
