package sessions

import (
	"errors"
	"time"
)

// UserSession is one device login. Inactive is terminal: a session never
// transitions back to active, and records are kept for login history.
type UserSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	BusinessID   string    `json:"business_id"`
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name"`
	Platform     string    `json:"platform"`
	LoginAt      time.Time `json:"login_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`
	ForceLogout  bool      `json:"force_logout"`
}

// ShouldLogout reports whether the session must end: forced out, expired,
// or already terminated.
func (s UserSession) ShouldLogout(now time.Time) bool {
	return s.ForceLogout || now.After(s.ExpiresAt) || !s.IsActive
}

// CreateSessionInput carries a login request.
type CreateSessionInput struct {
	UserID     string
	BusinessID string
	DeviceID   string
	DeviceName string
	Platform   string
}

// ErrSessionNotFound indicates the session record does not exist.
var ErrSessionNotFound = errors.New("sessions: session not found")
