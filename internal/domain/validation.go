package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Field limits shared by every entry point.
const (
	MaxNameLength         = 100
	MinDoseCount          = 1
	MaxDoseCount          = 10
	MinPasswordLength     = 6
	MaxPasswordLength     = 72 // bcrypt ignores anything past 72 bytes
	MaxLotLength          = 50
	MaxSiteLength         = 100
	MaxProfessionalLength = 100
)

var validate = validator.New()

// ValidateName checks that a display or vaccine name is non-blank and at most
// MaxNameLength characters once trimmed.
func ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NewValidationError(field, "cannot be empty", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", MaxNameLength), nil)
	}
	return nil
}

// ValidateDoseCount checks the number of doses a vaccine requires.
func ValidateDoseCount(n int) error {
	if n < MinDoseCount || n > MaxDoseCount {
		return NewValidationError("dose_count",
			fmt.Sprintf("must be between %d and %d", MinDoseCount, MaxDoseCount), nil)
	}
	return nil
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address against the standard address grammar.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "cannot be empty", nil)
	}
	if err := validate.Var(email, "email"); err != nil {
		return NewValidationError("email", "is not a valid address", ErrInvalidEmail)
	}
	return nil
}

// ValidatePassword enforces the length window and requires at least one
// letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return NewValidationError("password",
			fmt.Sprintf("must be between %d and %d characters", MinPasswordLength, MaxPasswordLength),
			ErrInvalidPassword)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return NewValidationError("password", "must contain at least one letter and one digit", ErrInvalidPassword)
	}
	return nil
}

// ValidateNotFuture checks that the calendar date of d is not after the
// calendar date of now. Both are compared as UTC calendar days.
func ValidateNotFuture(field string, d, now time.Time) error {
	if DateOf(d.UTC()).After(DateOf(now.UTC())) {
		return NewValidationError(field, "cannot be in the future", ErrFutureDate)
	}
	return nil
}

// ValidateDoseNumber checks that a dose number fits the vaccine's schedule.
func ValidateDoseNumber(n, doseCount int) error {
	if n < 1 || n > doseCount {
		return NewValidationError("dose_number", fmt.Sprintf("must be between 1 and %d", doseCount), nil)
	}
	return nil
}

// ValidateOptionalText checks the length of an optional free-text column.
func ValidateOptionalText(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", max), nil)
	}
	return nil
}

// ValidateID rejects non-positive identifiers.
func ValidateID(field string, id int64) error {
	if id <= 0 {
		return NewValidationError(field, "must be a positive integer", ErrInvalidID)
	}
	return nil
}

// DateOf truncates t to midnight of its calendar day, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
