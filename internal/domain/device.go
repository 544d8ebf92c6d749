package domain

import "time"

// Device is a client installation the user has logged in from. The
// fingerprint is the origin identifier the lockout ledger tracks, kept here
// so users can review where their vault has been opened.
type Device struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Platform    string    `json:"platform"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LastActive  time.Time `json:"last_active"`
	CreatedAt   time.Time `json:"created_at"`
	IsRevoked   bool      `json:"is_revoked"`
}

type RegisterDeviceRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Platform string `json:"platform" validate:"required,oneof=web desktop mobile"`
}

type DeviceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	LastActive time.Time `json:"last_active"`
	IsRevoked  bool      `json:"is_revoked"`
}
