package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// TagSize is the GCM authentication tag size for both layers.
const TagSize = 16

// Params fixes the envelope geometry and derivation cost of one layer.
type Params struct {
	SaltSize   int
	NonceSize  int
	Iterations int
}

// ClientParams is the geometry of the master-password layer.
var ClientParams = Params{SaltSize: 16, NonceSize: 12, Iterations: ClientIterations}

// ServerParams is the geometry of the server wrapping layer.
var ServerParams = Params{SaltSize: 32, NonceSize: 16, Iterations: ServerIterations}

// Envelope is the sealed form of a payload. It is created by Seal, consumed
// by Open, and never mutated in place.
type Envelope struct {
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Encode serializes the envelope as base64(salt || nonce || tag || ciphertext).
// This layout is fixed; clients in other languages parse it byte for byte.
func (e *Envelope) Encode() string {
	raw := make([]byte, 0, len(e.Salt)+len(e.Nonce)+len(e.Tag)+len(e.Ciphertext))
	raw = append(raw, e.Salt...)
	raw = append(raw, e.Nonce...)
	raw = append(raw, e.Tag...)
	raw = append(raw, e.Ciphertext...)
	return base64.StdEncoding.EncodeToString(raw)
}

// Codec seals and opens envelopes with AES-256-GCM under one layer's geometry.
type Codec struct {
	params Params
}

// NewCodec returns a codec for the given layer parameters.
func NewCodec(p Params) *Codec {
	return &Codec{params: p}
}

// Seal encrypts plaintext under key, producing an envelope carrying the given
// salt. The nonce is freshly random on every call; it is never derived from
// content, counters or time. When aad is non-nil it is bound into the tag.
func (c *Codec) Seal(key, salt, plaintext, aad []byte) (*Envelope, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes: %w", KeySize, ErrInvalidInput)
	}
	if len(salt) != c.params.SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes: %w", c.params.SaltSize, ErrInvalidInput)
	}

	gcm, err := c.newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := RandomBytes(c.params.NonceSize)
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, aad)

	// gcm.Seal appends the tag to the ciphertext; the wire layout carries it
	// as its own field between nonce and ciphertext.
	split := len(sealed) - TagSize
	return &Envelope{
		Salt:       salt,
		Nonce:      nonce,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
	}, nil
}

// Open decrypts an envelope. Every failure mode, from a truncated blob to a
// single flipped bit, surfaces as ErrAuthentication so callers cannot build
// an oracle out of the distinction.
func (c *Codec) Open(key []byte, env *Envelope, aad []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes: %w", KeySize, ErrInvalidInput)
	}
	if env == nil || len(env.Nonce) != c.params.NonceSize || len(env.Tag) != TagSize {
		return nil, ErrAuthentication
	}

	gcm, err := c.newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+TagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := gcm.Open(nil, env.Nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Decode parses a base64 blob produced by Encode back into an envelope.
// Malformed input is reported as ErrAuthentication, same as a bad tag.
func (c *Codec) Decode(blob string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrAuthentication
	}

	header := c.params.SaltSize + c.params.NonceSize + TagSize
	if len(raw) < header {
		return nil, ErrAuthentication
	}

	env := &Envelope{
		Salt:       raw[:c.params.SaltSize],
		Nonce:      raw[c.params.SaltSize : c.params.SaltSize+c.params.NonceSize],
		Tag:        raw[c.params.SaltSize+c.params.NonceSize : header],
		Ciphertext: raw[header:],
	}
	return env, nil
}

func (c *Codec) newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if c.params.NonceSize == 12 {
		return cipher.NewGCM(block)
	}
	return cipher.NewGCMWithNonceSize(block, c.params.NonceSize)
}
