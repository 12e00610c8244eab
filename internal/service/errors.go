package service

import (
	"errors"
	"fmt"

	"github.com/Varun5711/easywedding/internal/validation"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError names the input field that failed and why. It matches
// ErrValidation under errors.Is.
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

func newValidationError(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Err.Error()}
	}
	return &ValidationError{Message: err.Error()}
}

func internalError(err error) error {
	return fmt.Errorf("%w: %w", ErrInternal, err)
}
