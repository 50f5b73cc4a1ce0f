package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordMismatch = errors.New("password does not match")
)

// bcryptCost trades hash time for resistance to offline cracking. 12 keeps a
// login round trip well under a second on current hardware.
const bcryptCost = 12

// minPasswordLength is the only strength rule enforced server-side
const minPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt. Short passwords are
// rejected here as well as at the handler boundary.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// VerifyPassword compares a stored bcrypt hash against a login attempt
func VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}

// IsPasswordValid reports whether a candidate password meets the length rule
func IsPasswordValid(password string) bool {
	return len(password) >= minPasswordLength
}
