package httpx

import (
	"context"

	domainauth "github.com/target/forum-api/internal/domain/auth"
)

// Unexported context key types avoid collisions across packages.
type (
	sessionKey       struct{}
	filterAppliedKey struct{}
	requestIDKey     struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session attached by IdentityFilter, if any.
func GetSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// IdentityFromContext returns the authenticated identity, or the zero Identity for anonymous requests.
func IdentityFromContext(ctx context.Context) domainauth.Identity {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s.Identity()
	}
	return domainauth.Identity{}
}

// RequestIDFromContext returns the request id assigned by Logging.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
