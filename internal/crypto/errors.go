package crypto

import "errors"

var (
	// ErrInvalidInput indicates a caller bug: empty password, salt or payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWeakParameters indicates a key derivation cost below the hard floor.
	ErrWeakParameters = errors.New("key derivation parameters too weak")

	// ErrAuthentication covers every decryption failure: wrong key, flipped
	// bit, truncated blob, swapped salt. Callers must not distinguish them.
	ErrAuthentication = errors.New("authentication failed")
)
