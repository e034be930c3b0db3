package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionStoreKind selects the backing store for server-side sessions.
type SessionStoreKind string

const (
	// SessionStoreMemory keeps sessions in process memory (single instance, dev/test).
	SessionStoreMemory SessionStoreKind = "memory"
	// SessionStoreRedis keeps sessions in Redis so several instances can share them.
	SessionStoreRedis SessionStoreKind = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: memory, redis)", v)
	}
}

const (
	minSessionIdleTimeout       = time.Minute
	defaultSessionSweepInterval = time.Minute
	defaultCookieName           = "SESSION"
)

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// PublicPaths lists request paths that never require an authenticated identity.
	PublicPaths []string `env:"AUTH_PUBLIC_PATHS" envDefault:"/api/auth/login,/api/auth/register,/healthz" envSeparator:","`

	// BcryptCost is the work factor used when hashing new passwords.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	// SessionIdleTimeout is how long a session survives without any request.
	SessionIdleTimeout time.Duration `env:"AUTH_SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// SessionSweepInterval is how often the in-memory store drops idle sessions.
	// The Redis store relies on key TTLs instead.
	SessionSweepInterval time.Duration `env:"AUTH_SESSION_SWEEP_INTERVAL" envDefault:"1m"`

	// MaxSessionsPerUser limits concurrent sessions per user. Only 0 (unlimited) and 1 are supported.
	MaxSessionsPerUser int `env:"AUTH_MAX_SESSIONS_PER_USER" envDefault:"1"`

	// SessionStore selects where sessions live.
	SessionStore SessionStoreKind `env:"SESSION_STORE" envDefault:"memory"`

	// SessionKeyPrefix namespaces Redis session keys.
	SessionKeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"session:"`

	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"SESSION"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		a.BcryptCost = bcrypt.DefaultCost
	}
	if a.SessionIdleTimeout < minSessionIdleTimeout {
		a.SessionIdleTimeout = minSessionIdleTimeout
	}
	if a.SessionSweepInterval <= 0 {
		a.SessionSweepInterval = defaultSessionSweepInterval
	}
	if a.MaxSessionsPerUser < 0 {
		a.MaxSessionsPerUser = 0
	}
	if a.MaxSessionsPerUser > 1 {
		a.MaxSessionsPerUser = 1
	}
	if a.SessionStore == "" {
		a.SessionStore = SessionStoreMemory
	}
	if strings.TrimSpace(a.CookieName) == "" {
		a.CookieName = defaultCookieName
	}

	paths := make([]string, 0, len(a.PublicPaths))
	for _, p := range a.PublicPaths {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	a.PublicPaths = paths
}

// SingleSessionPerUser reports whether a new login evicts the user's previous session.
func (a *AuthConfig) SingleSessionPerUser() bool {
	return a.MaxSessionsPerUser == 1
}
