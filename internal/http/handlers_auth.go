package httpx

import (
	"context"
	"net/http"
	"time"

	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies CookieConfig
	Responder
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session cookie.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), service.LoginInput{
		Username:       req.Username,
		Password:       req.Password,
		PriorSessionID: h.Cookies.read(r),
	})
	if err != nil {
		if apperrors.IsMissingParameter(err) || apperrors.IsInternal(err) {
			h.fail(w, r, err)
			return
		}
		writeAuthOutcome(w, stepLogin, outcomeFromError(err))
		return
	}

	h.Cookies.set(w, r, res.Session.ID)
	writeAuthOutcome(w, stepLogin, domainauth.Success(res.Session.Identity()))
}

// Logout destroys the caller's session and clears the cookie.
// POST|GET /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if sess, ok := GetSessionFromContext(r.Context()); ok {
		sessionID = sess.ID
	}

	if err := h.Svc.Logout(r.Context(), sessionID); err != nil {
		if apperrors.IsInternal(err) {
			h.fail(w, r, err)
			return
		}
		writeAuthOutcome(w, stepLogout, outcomeFromError(err))
		return
	}

	h.Cookies.clear(w, r)
	writeAuthOutcome(w, stepLogout, domainauth.Success(domainauth.Identity{}))
}

// Register creates a new account. It does not log the user in.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.Svc.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, "Registration successful", user)
}

type meResponse struct {
	domainauth.Identity
	ExpiresAt time.Time `json:"expires_at"`
}

// Me returns the identity bound to the current session.
// GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetSessionFromContext(r.Context())
	if !ok {
		writeAuthOutcome(w, stepEntry, domainauth.Failure(domainauth.ReasonAuthRequired, nil))
		return
	}
	WriteSuccess(w, http.StatusOK, "OK", meResponse{
		Identity:  sess.Identity(),
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
}
