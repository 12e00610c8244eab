package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit; longer passwords cannot be hashed.
	MaxPasswordBytes = 72
	MaxNameLength    = 50
	MaxEmailLength   = 254
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email must be a valid address")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be at most 50 characters")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError ties a rule violation to the input field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

func ValidateEmail(email string) error {
	if email == "" {
		return fieldError("email", ErrEmailRequired)
	}
	if len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return fieldError("email", ErrEmailInvalid)
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return fieldError("password", ErrPasswordRequired)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fieldError("password", ErrPasswordTooShort)
	}
	if len(password) > MaxPasswordBytes {
		return fieldError("password", ErrPasswordTooLong)
	}
	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fieldError("name", ErrNameRequired)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fieldError("name", ErrNameTooLong)
	}
	return nil
}

func ValidateRegistration(email, password, name string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return ValidateName(name)
}

// ValidateLogin checks shape only. The minimum length is a registration policy and
// is not applied here, so a short wrong password is reported as bad credentials.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fieldError("password", ErrPasswordRequired)
	}
	if len(password) > MaxPasswordBytes {
		return fieldError("password", ErrPasswordTooLong)
	}
	return nil
}
