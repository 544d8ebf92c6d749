package domain

import "time"

// Vault is the persisted form of one user's sealed vault. EncryptedData is
// the server-wrapped blob; ClientSalt belongs to the inner layer and is
// returned to clients verbatim so they can re-derive the master key.
type Vault struct {
	UserID        string    `json:"user_id"`
	EncryptedData string    `json:"encrypted_data"`
	ServerSalt    string    `json:"server_salt"`
	ClientSalt    string    `json:"client_salt"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SaveVaultRequest struct {
	EncryptedData string `json:"encrypted_data" validate:"required,base64"`
	ClientSalt    string `json:"client_salt" validate:"required,base64"`
	DeviceID      string `json:"device_id"`
}

type SaveVaultResponse struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// VaultResponse carries the client-layer blob with the server wrapping
// already removed. Export marks responses bound for a local backup file.
type VaultResponse struct {
	EncryptedData string    `json:"encrypted_data"`
	ClientSalt    string    `json:"client_salt"`
	UpdatedAt     time.Time `json:"updated_at"`
	Export        bool      `json:"export,omitempty"`
}
