// Package secrets mints opaque random values (client secrets, codes) and
// bcrypt-hashes the ones that must be stored.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "oidcprovider/pkg/domain-errors"
)

const clientSecretBytes = 32

// Generate returns a fresh client secret: 32 random bytes, base64url.
func Generate() (string, error) {
	return Random(clientSecretBytes)
}

// Random returns n random bytes as unpadded base64url.
func Random(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash bcrypts a client secret or password. Empty and over-long (>72
// bytes) inputs are rejected as invalid input.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
	case err != nil:
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify compares plain with hash. A mismatch is CodeInvalidInput; a
// malformed hash is an internal error.
func Verify(plain, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return dErrors.New(dErrors.CodeInvalidInput, "secret mismatch")
	default:
		return fmt.Errorf("bcrypt compare: %w", err)
	}
}
