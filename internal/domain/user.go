package domain

import (
	"strings"
	"time"
)

// User represents a registered account of the vaccination tracker.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser builds a User from raw registration input. The name is trimmed and
// the email normalized; the password is validated but not stored, since the
// caller is responsible for hashing it.
func NewUser(name, email, password string) (*User, error) {
	if err := ValidateName("name", name); err != nil {
		return nil, err
	}

	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		Name:      strings.TrimSpace(name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks a user that is about to be persisted.
func (u *User) Validate() error {
	if err := ValidateName("name", u.Name); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.Email != NormalizeEmail(u.Email) {
		return NewValidationError("email", "must be lowercase", ErrInvalidEmail)
	}
	if u.HashedPassword == "" {
		return NewValidationError("password", "hash cannot be empty", ErrInvalidPassword)
	}
	return nil
}
