package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/forum-api/internal/data/pgxutil"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// UserRepo provides database operations for users and their credentials.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Create inserts a new user. The password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	if strings.TrimSpace(params.Username) == "" || params.PasswordHash == "" {
		return nil, errors.New("username and password hash are required")
	}

	now := r.timeProvider.Now().UTC()
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (username, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING `+userColumns,
			params.Username, params.Email, params.PasswordHash, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsConflict(mapped) {
			return nil, ErrUsernameTaken
		}
		return nil, mapped
	}
	return &out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindCredential returns the stored credential record for username.
func (r *UserRepo) FindCredential(ctx context.Context, username string) (domainauth.Credential, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return domainauth.Credential{}, err
	}
	return domainauth.Credential{UserID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	if arg == "" {
		return nil, ErrUserNotFound
	}
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return &out, nil
}
