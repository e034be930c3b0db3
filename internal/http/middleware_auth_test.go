package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	apperrors "github.com/target/forum-api/internal/errors"
)

// countingResolver resolves a single known session id and counts lookups.
type countingResolver struct {
	calls atomic.Int32
	known string
	err   error
}

func (c *countingResolver) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	if id != c.known {
		return nil, apperrors.NotLoggedIn()
	}
	return &domainauth.Session{ID: id, UserID: "u-1", Username: "user"}, nil
}

func identityEcho(seen *domainauth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestIdentityFilter_AttachesSession(t *testing.T) {
	res := &countingResolver{known: "abc"}
	var seen domainauth.Identity
	h := IdentityFilter(IdentityFilterOptions{Sessions: res})(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "SESSION", Value: "abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domainauth.Identity{UserID: "u-1", Username: "user"}, seen)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestIdentityFilter_RunsOncePerRequest(t *testing.T) {
	res := &countingResolver{known: "abc"}
	filter := IdentityFilter(IdentityFilterOptions{Sessions: res})
	var seen domainauth.Identity
	h := filter(filter(filter(identityEcho(&seen))))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "SESSION", Value: "abc"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int32(1), res.calls.Load())
	assert.Equal(t, "user", seen.Username)
}

func TestIdentityFilter_NoCookieSkipsLookup(t *testing.T) {
	res := &countingResolver{known: "abc"}
	var seen domainauth.Identity
	h := IdentityFilter(IdentityFilterOptions{Sessions: res})(identityEcho(&seen))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Zero(t, res.calls.Load())
	assert.True(t, seen.IsZero())
}

func TestIdentityFilter_StaleCookie(t *testing.T) {
	res := &countingResolver{known: "abc"}
	var seen domainauth.Identity
	h := IdentityFilter(IdentityFilterOptions{Sessions: res, Cookies: CookieConfig{Name: "forum_sid"}})(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "forum_sid", Value: "expired"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code, "filter never denies")
	assert.True(t, seen.IsZero())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "forum_sid=;")
}

func TestIdentityFilter_StoreErrorContinuesAnonymously(t *testing.T) {
	res := &countingResolver{err: apperrors.Wrap(errors.New("timeout"), apperrors.ErrCodeInternal, "read session failed")}
	var seen domainauth.Identity
	h := IdentityFilter(IdentityFilterOptions{Sessions: res})(identityEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "SESSION", Value: "abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, seen.IsZero())
	assert.Empty(t, rec.Header().Get("Set-Cookie"), "cookie kept on transient failure")
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireAuth([]string{"/api/public"})(ok)

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec, nil)
		assert.Equal(t, "Authentication required", env.Message)
		assert.Equal(t, CodeFailure, env.Code)
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req = req.WithContext(SetSessionInContext(req.Context(), &domainauth.Session{ID: "s", UserID: "u-1"}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("public path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogging_RequestID(t *testing.T) {
	var inner string
	h := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.NoError(t, uuid.Validate(inner))
		assert.Equal(t, inner, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, inner)
	})

	t.Run("garbage replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "<script>")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, "<script>", inner)
		assert.NoError(t, uuid.Validate(inner))
	})
}

func TestRecover(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}
