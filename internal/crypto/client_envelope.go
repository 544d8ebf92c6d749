package crypto

import (
	"encoding/base64"
)

// SealVault seals the vault document with the user's master password. A fresh
// salt is generated on every call, so saving identical plaintext twice yields
// structurally different blobs. The salt is returned separately because it is
// stored alongside the blob and handed back to clients on read.
func SealVault(password, plaintextJSON string) (blob, salt string, err error) {
	saltBytes, err := RandomBytes(ClientParams.SaltSize)
	if err != nil {
		return "", "", err
	}

	key, err := Derive([]byte(password), saltBytes, ClientParams.Iterations)
	if err != nil {
		return "", "", err
	}
	defer ClearBytes(key)

	env, err := NewCodec(ClientParams).Seal(key, saltBytes, []byte(plaintextJSON), nil)
	if err != nil {
		return "", "", err
	}

	return env.Encode(), base64.StdEncoding.EncodeToString(saltBytes), nil
}

// OpenVault opens a sealed vault blob with the master password and its stored
// salt. A wrong password, a tampered blob and a malformed blob all return
// ("", false); the caller shows one generic failure message for all three.
func OpenVault(password, salt, blob string) (string, bool) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil || len(saltBytes) == 0 {
		return "", false
	}

	key, err := Derive([]byte(password), saltBytes, ClientParams.Iterations)
	if err != nil {
		return "", false
	}
	defer ClearBytes(key)

	codec := NewCodec(ClientParams)
	env, err := codec.Decode(blob)
	if err != nil {
		return "", false
	}

	plaintext, err := codec.Open(key, env, nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}
