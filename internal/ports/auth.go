package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/target/forum-api/internal/domain/auth"
)

// CredentialStore looks up stored credential records by username.
// Implementations return an error satisfying errors.IsNotFound when the user does not exist.
type CredentialStore interface {
	FindCredential(ctx context.Context, username string) (domainauth.Credential, error)
}

// PasswordHasher produces and checks one-way password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// SessionStore persists authenticated identities keyed by opaque session identifiers.
type SessionStore interface {
	// Create issues a new session for identity. When priorID is non-empty that session
	// is destroyed first, whoever owns it, so the identifier rotates on login.
	Create(ctx context.Context, identity domainauth.Identity, priorID string) (domainauth.Session, error)
	// Read returns the session and restarts its idle window.
	// It returns domainauth.ErrSessionNotFound when the id is unknown or expired.
	Read(ctx context.Context, id string) (domainauth.Session, error)
	// Destroy removes a session. Destroying an absent session is not an error.
	Destroy(ctx context.Context, id string) error
	// DestroyUser removes every session belonging to userID and returns how many were removed.
	DestroyUser(ctx context.Context, userID string) (int, error)
}

// SessionSweeper is implemented by session stores that must drop idle sessions themselves.
type SessionSweeper interface {
	// Sweep removes sessions idle-expired at now and returns how many it removed.
	Sweep(now time.Time) int
	// Len returns the number of stored sessions.
	Len() int
}
