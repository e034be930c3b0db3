package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	apperrors "github.com/target/forum-api/internal/errors"
)

const requestIDHeader = "X-Request-ID"

// Logging returns a middleware that assigns a request id and logs HTTP requests and responses.
// A well-formed inbound X-Request-ID is reused; otherwise a new UUID is issued.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(requestIDHeader)
			if uuid.Validate(reqID) != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)

			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", reqID),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics, logs them and answers with the 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteFailure(w, http.StatusInternalServerError, internalErrorMessage)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver resolves a session identifier to a live session.
type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// IdentityFilterOptions configures IdentityFilter.
type IdentityFilterOptions struct {
	Sessions SessionResolver
	Cookies  CookieConfig
	Logger   *slog.Logger
}

// IdentityFilter attaches the session named by the request's cookie to the request context.
// It never rejects a request: unknown or expired sessions leave the request anonymous and
// the stale cookie is cleared. Enforcement is left to RequireAuth. Wrapping a handler
// twice is harmless; the inner filter sees the marker and passes through.
func IdentityFilter(opts IdentityFilterOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Value(filterAppliedKey{}) != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), filterAppliedKey{}, true)

			if id := opts.Cookies.read(r); id != "" {
				sess, err := opts.Sessions.GetSession(ctx, id)
				switch {
				case err == nil:
					ctx = SetSessionInContext(ctx, sess)
				case apperrors.IsNotLoggedIn(err):
					opts.Cookies.clear(w, r)
				default:
					logger.WarnContext(ctx, "session lookup failed; continuing anonymously", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns the entry-point middleware for protected routes: anonymous
// requests receive 401 "Authentication required". Paths in publicPaths pass through.
func RequireAuth(publicPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := GetSessionFromContext(r.Context()); !ok {
				writeAuthOutcome(w, stepEntry, domainauth.Failure(domainauth.ReasonAuthRequired, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
