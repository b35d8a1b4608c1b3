package mocks

import (
	"strings"

	"github.com/imunetrack/imunetrack-api/internal/service/auth"
)

// HashPrefix marks hashes produced by PasswordHasher.
const HashPrefix = "hashed:"

// PasswordHasher implements auth.PasswordHasher with a reversible,
// deterministic encoding so tests can assert on stored hashes.
type PasswordHasher struct {
	// HashErr and CompareErr, when set, are returned instead.
	HashErr    error
	CompareErr error

	HashCalls int
}

var _ auth.PasswordHasher = (*PasswordHasher)(nil)

// Hash implements auth.PasswordHasher.
func (h *PasswordHasher) Hash(password string) (string, error) {
	h.HashCalls++
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return HashPrefix + password, nil
}

// Compare implements auth.PasswordHasher.
func (h *PasswordHasher) Compare(hashedPassword, password string) error {
	if h.CompareErr != nil {
		return h.CompareErr
	}
	if !strings.HasPrefix(hashedPassword, HashPrefix) || hashedPassword[len(HashPrefix):] != password {
		return auth.ErrPasswordMismatch
	}
	return nil
}
