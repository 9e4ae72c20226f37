package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// bcryptCost trades hash time for resistance to offline cracking. Fixed
// rather than configurable so login latency stays predictable.
const bcryptCost = 12

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword returns the bcrypt hash of a password, rejecting passwords
// below MinPasswordLength before doing any work
func HashPassword(password string) (string, error) {
	if !IsPasswordValid(password) {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a stored bcrypt hash against a plaintext candidate
func VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return err
	}
}

// IsPasswordValid reports whether a password meets the length floor
func IsPasswordValid(password string) bool {
	return len(password) >= MinPasswordLength
}
