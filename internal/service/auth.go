package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/target/forum-api/internal/core"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/observability/metrics"
	"github.com/target/forum-api/internal/observability/statsd"
	"github.com/target/forum-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Credentials ports.CredentialStore
	Hasher      ports.PasswordHasher
	Sessions    ports.SessionStore
	Users       core.UserRepository // optional; required only by Register
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// AuthService verifies credentials and manages the session lifecycle for login, lookup and logout.
type AuthService struct {
	credentials ports.CredentialStore
	hasher      ports.PasswordHasher
	sessions    ports.SessionStore
	users       core.UserRepository
	metrics     statsd.Sink
	logger      *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		credentials: opts.Credentials,
		hasher:      opts.Hasher,
		sessions:    opts.Sessions,
		users:       opts.Users,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "auth"),
	}
}

// Verify checks username and password against the stored credential.
// It fails with UserNotFound or WrongPassword, both of which satisfy apperrors.IsBadCredentials.
func (s *AuthService) Verify(ctx context.Context, username, password string) (domainauth.Identity, error) {
	cred, err := s.credentials.FindCredential(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.compareDummy(password)
			return domainauth.Identity{}, apperrors.UserNotFound(username)
		}
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "credential lookup failed")
	}

	if err := s.hasher.Compare(cred.PasswordHash, password); err != nil {
		return domainauth.Identity{}, apperrors.WrongPassword()
	}

	return domainauth.Identity{UserID: cred.UserID, Username: cred.Username}, nil
}

// compareDummy spends the same bcrypt work on an unknown username as on a known one.
func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("forum-dummy-password")
		if err != nil {
			s.logger.Warn("dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Username string
	Password string
	// PriorSessionID is the session presented with the login request, if any. It is destroyed
	// so the identifier always changes across authentication.
	PriorSessionID string
}

// LoginResult contains the session created by a successful login.
type LoginResult struct {
	Session domainauth.Session
}

// Login verifies the credentials and issues a fresh session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	var missing []string
	if strings.TrimSpace(in.Username) == "" {
		missing = append(missing, "username")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingParameters(missing...)
	}

	start := time.Now()
	identity, err := s.Verify(ctx, in.Username, in.Password)
	if err != nil {
		result := metrics.ResultFailure
		if !apperrors.IsBadCredentials(err) {
			result = metrics.ResultError
		}
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{
			Operation: metrics.OpLogin, Result: result, Duration: time.Since(start), Err: err,
		})
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, identity, in.PriorSessionID)
	if err != nil {
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{
			Operation: metrics.OpLogin, Result: metrics.ResultError, Duration: time.Since(start), Err: err,
		})
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create session failed")
	}

	metrics.EmitAuth(s.metrics, metrics.AuthMetric{
		Operation: metrics.OpLogin, Result: metrics.ResultSuccess, Duration: time.Since(start),
	})
	s.logger.InfoContext(ctx, "login succeeded", "user_id", identity.UserID)
	return &LoginResult{Session: sess}, nil
}

// GetSession resolves a session identifier. Unknown, expired or empty identifiers fail with NotLoggedIn.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotLoggedIn()
	}

	sess, err := s.sessions.Read(ctx, sessionID)
	switch {
	case errors.Is(err, domainauth.ErrSessionNotFound):
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpSessionLookup, Result: metrics.ResultMiss})
		return nil, apperrors.NotLoggedIn()
	case err != nil:
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{
			Operation: metrics.OpSessionLookup, Result: metrics.ResultError, Err: err,
		})
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read session failed")
	}

	metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpSessionLookup, Result: metrics.ResultHit})
	return &sess, nil
}

// Logout destroys an active session. Logging out without one fails with NotLoggedIn.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		if apperrors.IsNotLoggedIn(err) {
			metrics.EmitAuth(s.metrics, metrics.AuthMetric{
				Operation: metrics.OpLogout, Result: metrics.ResultFailure, Err: err,
			})
		}
		return err
	}

	if err := s.sessions.Destroy(ctx, sess.ID); err != nil {
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpLogout, Result: metrics.ResultError, Err: err})
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "destroy session failed")
	}

	metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpLogout, Result: metrics.ResultSuccess})
	s.logger.InfoContext(ctx, "logout", "user_id", sess.UserID)
	return nil
}

// Register validates req, hashes the password and creates the user.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if s.users == nil {
		return nil, errors.New("registration is not configured")
	}
	if req == nil {
		return nil, apperrors.MissingParameters("username", "password")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpRegister, Result: metrics.ResultFailure, Err: err})
		return nil, err
	}

	metrics.EmitAuth(s.metrics, metrics.AuthMetric{Operation: metrics.OpRegister, Result: metrics.ResultSuccess})
	return user, nil
}

// EndUserSessions destroys every session belonging to userID and returns how many were removed.
func (s *AuthService) EndUserSessions(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, apperrors.MissingParameters("user_id")
	}
	n, err := s.sessions.DestroyUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("destroy user sessions: %w", err)
	}
	return n, nil
}
