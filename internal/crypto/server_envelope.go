package crypto

import (
	"encoding/base64"
	"fmt"
)

// serverKeyMaterial binds the wrapping key to one account so a blob copied
// between accounts fails to unwrap even under the same server secret.
func serverKeyMaterial(serverSecret, accountID string) []byte {
	return []byte(accountID + ":" + serverSecret)
}

// WrapVault wraps an already-sealed client blob with a key derived from the
// account ID and the server secret. The master password is not involved; this
// layer is additive and its removal costs nothing against the user's own
// adversary model. The salt is bound as associated data, so a swapped salt is
// caught by the tag check rather than producing garbage.
func WrapVault(serverSecret, accountID, innerBlob string) (outerBlob, outerSalt string, err error) {
	if serverSecret == "" || accountID == "" {
		return "", "", fmt.Errorf("missing server secret or account id: %w", ErrInvalidInput)
	}

	saltBytes, err := RandomBytes(ServerParams.SaltSize)
	if err != nil {
		return "", "", err
	}

	key, err := Derive(serverKeyMaterial(serverSecret, accountID), saltBytes, ServerParams.Iterations)
	if err != nil {
		return "", "", err
	}
	defer ClearBytes(key)

	env, err := NewCodec(ServerParams).Seal(key, saltBytes, []byte(innerBlob), saltBytes)
	if err != nil {
		return "", "", err
	}

	return env.Encode(), base64.StdEncoding.EncodeToString(saltBytes), nil
}

// UnwrapVault removes the server wrapping layer and returns the inner client
// blob. Corruption of any kind yields ErrAuthentication; callers degrade to
// "no vault available" rather than failing the whole request pipeline.
func UnwrapVault(serverSecret, accountID, outerSalt, outerBlob string) (string, error) {
	if serverSecret == "" || accountID == "" {
		return "", fmt.Errorf("missing server secret or account id: %w", ErrInvalidInput)
	}

	saltBytes, err := base64.StdEncoding.DecodeString(outerSalt)
	if err != nil || len(saltBytes) != ServerParams.SaltSize {
		return "", ErrAuthentication
	}

	key, err := Derive(serverKeyMaterial(serverSecret, accountID), saltBytes, ServerParams.Iterations)
	if err != nil {
		return "", err
	}
	defer ClearBytes(key)

	codec := NewCodec(ServerParams)
	env, err := codec.Decode(outerBlob)
	if err != nil {
		return "", err
	}

	// The key comes from the stored salt, the AAD from the embedded one.
	// They match for an intact blob; any tampering with either copy fails
	// the tag check.
	plaintext, err := codec.Open(key, env, env.Salt)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
