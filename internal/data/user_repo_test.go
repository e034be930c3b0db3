package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/testutil"
)

func createTestUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u, err := NewUserRepo(db).Create(context.Background(), model.CreateUserParams{
		Username:     username,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	})
	require.NoError(t, err)
	return u
}

func TestUserRepo_Create_Get_FindCredential(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
		repo := NewUserRepoWithTimeProvider(db, NewFixedTimeProvider(fixed))

		email := "alice@example.com"
		u, err := repo.Create(ctx, model.CreateUserParams{
			Username:     "alice",
			Email:        &email,
			PasswordHash: "hash-value",
		})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		assert.Equal(t, "alice", u.Username)
		require.NotNil(t, u.Email)
		assert.Equal(t, email, *u.Email)
		assert.True(t, u.CreatedAt.Equal(fixed))

		byID, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, byID.Username)

		byName, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byName.ID)

		cred, err := repo.FindCredential(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, cred.UserID)
		assert.Equal(t, "hash-value", cred.PasswordHash)
	})
}

func TestUserRepo_Errors(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)
		createTestUser(t, db, "bob")

		_, err := repo.Create(ctx, model.CreateUserParams{Username: "bob", PasswordHash: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUsernameTaken)
		assert.True(t, apperrors.IsConflict(err))

		_, err = repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.FindCredential(ctx, "nobody")
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.Create(ctx, model.CreateUserParams{Username: " ", PasswordHash: "x"})
		assert.Error(t, err)
	})
}
