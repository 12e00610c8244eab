package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail_Valid(t *testing.T) {
	valid := []string{
		"a@b.com",
		"kim.lee@example.co.kr",
		"user+tag@mail.example.org",
		"A@B.COM",
	}

	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("expected '%s' to be valid, got error: %v", email, err)
		}
	}
}

func TestValidateEmail_Invalid(t *testing.T) {
	invalid := []string{
		"plainaddress",
		"a@b",
		"@b.com",
		"a@.com.",
		"a b@c.com",
		"a@@b.com",
	}

	for _, email := range invalid {
		err := ValidateEmail(email)
		if !errors.Is(err, ErrEmailInvalid) {
			t.Errorf("expected ErrEmailInvalid for '%s', got: %v", email, err)
		}
	}

	if err := ValidateEmail(""); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("expected ErrEmailRequired, got: %v", err)
	}
}

func TestValidatePassword_Boundary(t *testing.T) {
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("expected 6 characters to be accepted, got: %v", err)
	}

	err := ValidatePassword("12345")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort for 5 characters, got: %v", err)
	}

	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "password" {
		t.Errorf("expected FieldError on 'password', got: %v", err)
	}
}

func TestValidatePassword_Limits(t *testing.T) {
	if err := ValidatePassword("비밀번호여섯"); err != nil {
		t.Errorf("expected six multi-byte characters to be accepted, got: %v", err)
	}

	if err := ValidatePassword(strings.Repeat("a", 72)); err != nil {
		t.Errorf("expected 72 bytes to be accepted, got: %v", err)
	}

	if err := ValidatePassword(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got: %v", err)
	}

	if err := ValidatePassword(""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got: %v", err)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Kim"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateName(strings.Repeat("가", 50)); err != nil {
		t.Errorf("expected 50 characters to be accepted, got: %v", err)
	}

	if err := ValidateName(strings.Repeat("a", 51)); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got: %v", err)
	}

	if err := ValidateName("   "); !errors.Is(err, ErrNameRequired) {
		t.Errorf("expected ErrNameRequired for blank name, got: %v", err)
	}
}

func TestValidateRegistration_ReportsFirstField(t *testing.T) {
	err := ValidateRegistration("bad", "123", "")

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got: %v", err)
	}
	if fe.Field != "email" {
		t.Errorf("expected email to be reported first, got '%s'", fe.Field)
	}
	if fe.Error() != "email: email must be a valid address" {
		t.Errorf("unexpected message '%s'", fe.Error())
	}
}

func TestValidateLogin_ShapeOnly(t *testing.T) {
	if err := ValidateLogin("a@b.com", "wrong"); err != nil {
		t.Errorf("expected short password to pass login shape check, got: %v", err)
	}

	if err := ValidateLogin("a@b.com", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got: %v", err)
	}

	if err := ValidateLogin("not-an-email", "secret1"); !errors.Is(err, ErrEmailInvalid) {
		t.Errorf("expected ErrEmailInvalid, got: %v", err)
	}
}
