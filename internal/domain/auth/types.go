package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned by session stores when an identifier is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Credential is the stored login record for a user.
// PasswordHash is a one-way bcrypt hash; plaintext passwords never leave the verifier.
type Credential struct {
	UserID       string
	Username     string
	PasswordHash string
}

// Identity is the minimal verified user reference attached to a request.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// IsZero reports whether the identity is empty (unauthenticated).
func (i Identity) IsZero() bool { return i.UserID == "" }

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque, unguessable identifier. The session expires once it has been idle
// longer than the configured timeout; ExpiresAt is LastSeenAt plus that timeout.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Identity returns the authenticated identity carried by the session.
func (s Session) Identity() Identity {
	return Identity{UserID: s.UserID, Username: s.Username}
}

// Expired reports whether the session is past its idle expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Touch returns a copy of the session with its idle window restarted at now.
func (s Session) Touch(now time.Time, idle time.Duration) Session {
	s.LastSeenAt = now
	s.ExpiresAt = now.Add(idle)
	return s
}
