package domain

import "time"

// Audit event kinds recorded around login attempts.
const (
	AuditLoginSuccess = "login_success"
	AuditLoginFailure = "login_failure"
	AuditLockout      = "lockout"
)

// AuditEvent is an append-only record of one authentication outcome. It never
// contains passwords or vault material.
type AuditEvent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Origin    string    `json:"origin"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}
