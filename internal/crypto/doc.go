// Package crypto implements the two encryption layers protecting a vault.
//
// The inner (client) layer seals the vault document with a key derived from
// the user's master password:
//   - PBKDF2-HMAC-SHA256, 500,000 iterations, 16-byte random salt
//   - AES-256-GCM with a 12-byte random nonce per seal
//
// The outer (server) layer re-wraps the already-sealed client blob with a key
// derived from the account ID and a process-wide server secret:
//   - PBKDF2-HMAC-SHA256, 600,000 iterations, 32-byte random salt
//   - AES-256-GCM with a 16-byte random nonce, salt bound as associated data
//
// The server layer is defense in depth only. The server never holds the
// master password, so removing the outer layer does not weaken the inner one.
//
// Wire format for both layers: salt || nonce || tag || ciphertext,
// base64-encoded. Nonces come from crypto/rand on every seal; a (key, nonce)
// pair is never reused. Derived keys live for one seal/open call and are
// zeroed afterwards with ClearBytes.
package crypto
