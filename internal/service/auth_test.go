package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/mocks"
	"github.com/target/forum-api/internal/observability/statsd"
	"go.uber.org/mock/gomock"
)

type authDeps struct {
	creds    *mocks.MockCredentialStore
	hasher   *mocks.MockPasswordHasher
	sessions *mocks.MockSessionStore
	users    *mocks.MockUserRepository
	rec      *statsd.Recorder
}

func newAuthService(t *testing.T) (*AuthService, authDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := authDeps{
		creds:    mocks.NewMockCredentialStore(ctrl),
		hasher:   mocks.NewMockPasswordHasher(ctrl),
		sessions: mocks.NewMockSessionStore(ctrl),
		users:    mocks.NewMockUserRepository(ctrl),
		rec:      &statsd.Recorder{},
	}
	svc := NewAuthService(AuthServiceOptions{
		Credentials: d.creds,
		Hasher:      d.hasher,
		Sessions:    d.sessions,
		Users:       d.users,
		Metrics:     d.rec,
	})
	return svc, d
}

var aliceCred = domainauth.Credential{UserID: "u-1", Username: "user", PasswordHash: "hash-of-password"}

func testSession(id string) domainauth.Session {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domainauth.Session{
		ID:         id,
		UserID:     "u-1",
		Username:   "user",
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(30 * time.Minute),
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.creds.EXPECT().FindCredential(ctx, "user").Return(aliceCred, nil)
	d.hasher.EXPECT().Compare("hash-of-password", "password").Return(nil)
	d.sessions.EXPECT().
		Create(ctx, domainauth.Identity{UserID: "u-1", Username: "user"}, "anon-session").
		Return(testSession("fresh-session"), nil)

	res, err := svc.Login(ctx, LoginInput{Username: "user", Password: "password", PriorSessionID: "anon-session"})
	require.NoError(t, err)
	assert.Equal(t, "fresh-session", res.Session.ID)
	assert.NotEqual(t, "anon-session", res.Session.ID)

	logins := d.rec.Find("auth.login")
	require.Len(t, logins, 1)
	assert.Equal(t, "success", logins[0].Tags["result"])
}

func TestAuthService_Login_MissingParameters(t *testing.T) {
	svc, _ := newAuthService(t)

	tests := []struct {
		name    string
		in      LoginInput
		wantMsg string
	}{
		{
			name:    "both missing",
			in:      LoginInput{},
			wantMsg: "username: Missing required parameter;password: Missing required parameter;",
		},
		{
			name:    "username blank",
			in:      LoginInput{Username: "   ", Password: "x"},
			wantMsg: "username: Missing required parameter;",
		},
		{
			name:    "password missing",
			in:      LoginInput{Username: "user"},
			wantMsg: "password: Missing required parameter;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsMissingParameter(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestAuthService_Login_UnknownUserStillComparesHash(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.creds.EXPECT().FindCredential(ctx, "ghost").Return(domainauth.Credential{}, apperrors.NotFound("user not found")).Times(2)
	d.hasher.EXPECT().Hash(gomock.Any()).Return("dummy-hash", nil).Times(1)
	d.hasher.EXPECT().Compare("dummy-hash", gomock.Any()).Return(errors.New("mismatch")).Times(2)

	for range 2 {
		_, err := svc.Login(ctx, LoginInput{Username: "ghost", Password: "password"})
		require.Error(t, err)
		assert.True(t, apperrors.IsBadCredentials(err))
		assert.Equal(t, apperrors.ErrCodeUserNotFound, apperrors.GetCode(err))
	}

	logins := d.rec.Find("auth.login")
	require.Len(t, logins, 2)
	assert.Equal(t, "failure", logins[0].Tags["result"])
	assert.Equal(t, "user_not_found", logins[0].Tags["error_class"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.creds.EXPECT().FindCredential(ctx, "user").Return(aliceCred, nil)
	d.hasher.EXPECT().Compare("hash-of-password", "wrongpassword").Return(errors.New("mismatch"))

	_, err := svc.Login(ctx, LoginInput{Username: "user", Password: "wrongpassword"})
	require.Error(t, err)
	assert.True(t, apperrors.IsBadCredentials(err))
	assert.Equal(t, apperrors.ErrCodeWrongPassword, apperrors.GetCode(err))
	assert.ErrorIs(t, err, apperrors.WrongPassword())
}

func TestAuthService_Login_LookupFailureIsInternal(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.creds.EXPECT().FindCredential(ctx, "user").Return(domainauth.Credential{}, errors.New("connection refused"))

	_, err := svc.Login(ctx, LoginInput{Username: "user", Password: "password"})
	require.Error(t, err)
	assert.False(t, apperrors.IsBadCredentials(err))
	assert.True(t, apperrors.IsInternal(err))
	assert.Equal(t, "error", d.rec.Find("auth.login")[0].Tags["result"])
}

func TestAuthService_Login_SessionCreateFailure(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.creds.EXPECT().FindCredential(ctx, "user").Return(aliceCred, nil)
	d.hasher.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(nil)
	d.sessions.EXPECT().Create(ctx, gomock.Any(), "").Return(domainauth.Session{}, errors.New("redis down"))

	_, err := svc.Login(ctx, LoginInput{Username: "user", Password: "password"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

func TestAuthService_GetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		svc, _ := newAuthService(t)
		_, err := svc.GetSession(ctx, "")
		assert.True(t, apperrors.IsNotLoggedIn(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.sessions.EXPECT().Read(ctx, "gone").Return(domainauth.Session{}, domainauth.ErrSessionNotFound)

		_, err := svc.GetSession(ctx, "gone")
		assert.True(t, apperrors.IsNotLoggedIn(err))
		assert.Equal(t, "miss", d.rec.Find("auth.session_lookup")[0].Tags["result"])
	})

	t.Run("store failure", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.sessions.EXPECT().Read(ctx, "abc").Return(domainauth.Session{}, errors.New("timeout"))

		_, err := svc.GetSession(ctx, "abc")
		assert.True(t, apperrors.IsInternal(err))
	})

	t.Run("hit", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.sessions.EXPECT().Read(ctx, "abc").Return(testSession("abc"), nil)

		sess, err := svc.GetSession(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "user", sess.Username)
		assert.Equal(t, "hit", d.rec.Find("auth.session_lookup")[0].Tags["result"])
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		svc, d := newAuthService(t)
		err := svc.Logout(ctx, "")
		assert.True(t, apperrors.IsNotLoggedIn(err))
		assert.Equal(t, "failure", d.rec.Find("auth.logout")[0].Tags["result"])
	})

	t.Run("stale session", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.sessions.EXPECT().Read(ctx, "stale").Return(domainauth.Session{}, domainauth.ErrSessionNotFound)

		err := svc.Logout(ctx, "stale")
		assert.True(t, apperrors.IsNotLoggedIn(err))
	})

	t.Run("active session is destroyed", func(t *testing.T) {
		svc, d := newAuthService(t)
		gomock.InOrder(
			d.sessions.EXPECT().Read(ctx, "abc").Return(testSession("abc"), nil),
			d.sessions.EXPECT().Destroy(ctx, "abc").Return(nil),
		)

		require.NoError(t, svc.Logout(ctx, "abc"))
		assert.Equal(t, "success", d.rec.Find("auth.logout")[0].Tags["result"])
	})

	t.Run("destroy failure", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.sessions.EXPECT().Read(ctx, "abc").Return(testSession("abc"), nil)
		d.sessions.EXPECT().Destroy(ctx, "abc").Return(errors.New("boom"))

		err := svc.Logout(ctx, "abc")
		assert.True(t, apperrors.IsInternal(err))
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.hasher.EXPECT().Hash("correct-horse").Return("bcrypt-hash", nil)
		d.users.EXPECT().
			Create(ctx, model.CreateUserParams{Username: "newbie", PasswordHash: "bcrypt-hash"}).
			Return(&model.User{ID: "u-9", Username: "newbie"}, nil)

		u, err := svc.Register(ctx, &model.RegisterRequest{Username: "  newbie ", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, "u-9", u.ID)
	})

	t.Run("validation runs before hashing", func(t *testing.T) {
		svc, _ := newAuthService(t)
		_, err := svc.Register(ctx, &model.RegisterRequest{Username: "ab", Password: "correct-horse"})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _ := newAuthService(t)
		_, err := svc.Register(ctx, &model.RegisterRequest{})
		assert.True(t, apperrors.IsMissingParameter(err))
	})

	t.Run("duplicate username passes through", func(t *testing.T) {
		svc, d := newAuthService(t)
		d.hasher.EXPECT().Hash(gomock.Any()).Return("h", nil)
		d.users.EXPECT().Create(ctx, gomock.Any()).Return(nil, apperrors.Conflict("Username is already taken."))

		_, err := svc.Register(ctx, &model.RegisterRequest{Username: "taken", Password: "correct-horse"})
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewAuthService(AuthServiceOptions{})
		_, err := svc.Register(ctx, &model.RegisterRequest{Username: "newbie", Password: "correct-horse"})
		assert.Error(t, err)
	})
}

func TestAuthService_EndUserSessions(t *testing.T) {
	svc, d := newAuthService(t)
	ctx := context.Background()

	d.sessions.EXPECT().DestroyUser(ctx, "u-1").Return(2, nil)
	n, err := svc.EndUserSessions(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.EndUserSessions(ctx, "")
	assert.True(t, apperrors.IsMissingParameter(err))
}
