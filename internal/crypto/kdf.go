package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key size produced by Derive.
	KeySize = 32

	// ClientIterations is the PBKDF2 cost of the master-password layer.
	ClientIterations = 500000

	// ServerIterations is the PBKDF2 cost of the server wrapping layer. The
	// server tunes this independently of what clients use.
	ServerIterations = 600000

	// MinIterations is the hard floor below which Derive refuses to run.
	MinIterations = 100000
)

// Derive stretches a password and salt into a 32-byte AES key using
// PBKDF2-HMAC-SHA256. It is deterministic for identical inputs; the salt is
// public and exists only to defeat precomputation.
//
// The caller owns the returned key for exactly one seal or open call and must
// pass it to ClearBytes afterwards.
func Derive(password, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("empty password: %w", ErrInvalidInput)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("empty salt: %w", ErrInvalidInput)
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("%d iterations: %w", iterations, ErrWeakParameters)
	}

	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}

// ClearBytes zeroes key material in place.
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare reports whether a and b are equal without leaking
// where they differ.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
