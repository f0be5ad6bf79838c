// Package credential wraps password hashing and verification.
package credential

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"pennywise/internal/core"
)

// bcryptCost matches the work factor the accounts were created with.
const bcryptCost = 10

// ErrMalformedHash signals a corrupted stored credential: the hash could
// not be interpreted at all, as opposed to a plain mismatch.
var ErrMalformedHash = errors.New("malformed password hash")

// Hash produces a salted one-way hash of password. The salt is generated
// per call, so two hashes of the same password differ.
func Hash(password string) (string, error) {
	if password == "" {
		return "", core.ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password hashes to hash. A mismatch is not an
// error; an error means the stored hash itself is unusable.
func Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
}
