package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/forum-api/internal/data/database"
	"github.com/target/forum-api/internal/data/pgxutil"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

const (
	postFeedView     = "post_feed"
	defaultPostLimit = 20
	maxPostLimit     = 500
)

var postFeedColumns = []string{"id", "author_id", "author_username", "title", "body", "created_at", "updated_at"}

// PostRepo provides database operations for posts.
type PostRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPostRepo creates a new PostRepo with real time provider.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewPostRepoWithTimeProvider creates a new PostRepo with a custom time provider (useful for tests).
func NewPostRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PostRepo {
	return &PostRepo{DB: db, timeProvider: tp}
}

// Create inserts a new post authored by authorID and returns it with the author's username.
func (r *PostRepo) Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error) {
	if req == nil {
		return nil, errors.New("create post request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			WITH inserted AS (
				INSERT INTO posts (author_id, title, body, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $4)
				RETURNING id, author_id, title, body, created_at, updated_at
			)
			SELECT i.id, i.author_id, u.username AS author_username, i.title, i.body, i.created_at, i.updated_at
			FROM inserted i JOIN users u ON u.id = i.author_id`,
			authorID, req.Title, req.Body, now,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a post by ID.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if !isUUID(id) {
		return nil, ErrPostNotFound
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions(postFeedView,
		database.WithColumns(postFeedColumns...),
		database.WithCondition(database.WhereCond("id", database.Equal, id)),
	))
	posts, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	return posts[0], nil
}

// List retrieves posts newest first with pagination and optional filters.
func (r *PostRepo) List(ctx context.Context, opts model.PostListOptions) ([]*model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPostLimit
	}
	if limit > maxPostLimit {
		limit = maxPostLimit
	}

	qopts := []database.ListQueryOption{
		database.WithColumns(postFeedColumns...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithOrderBy("id", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if opts.AuthorID != nil {
		if !isUUID(*opts.AuthorID) {
			return []*model.Post{}, nil
		}
		qopts = append(qopts, database.WithCondition(database.WhereCond("author_id", database.Equal, *opts.AuthorID)))
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		qopts = append(qopts, database.WithCondition(database.Contains("title", strings.TrimSpace(*opts.Q))))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions(postFeedView, qopts...))
	return r.query(ctx, query, args)
}

// Update applies the non-nil fields of req and bumps updated_at.
func (r *PostRepo) Update(ctx context.Context, id string, req *model.UpdatePostRequest) (*model.Post, error) {
	if req == nil {
		return nil, errors.New("update post request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !isUUID(id) {
		return nil, ErrPostNotFound
	}

	var found bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			UPDATE posts
			SET title = COALESCE($2, title),
			    body = COALESCE($3, body),
			    updated_at = $4
			WHERE id = $1`,
			id, req.Title, req.Body, r.timeProvider.Now().UTC(),
		)
		found = tag.RowsAffected() > 0
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if !found {
		return nil, ErrPostNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a post; comments, likes and attachments cascade. It reports whether a row was removed.
func (r *PostRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	var deleted bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		deleted = tag.RowsAffected() > 0
		return err
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return deleted, nil
}

// CountByAuthor returns how many posts authorID has written.
func (r *PostRepo) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	if !isUUID(authorID) {
		return 0, nil
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("posts",
		database.WithCountOnly(),
		database.WithCondition(database.WhereCond("author_id", database.Equal, authorID)),
	))
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

func (r *PostRepo) query(ctx context.Context, query string, args []any) ([]*model.Post, error) {
	var rowsOut []model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Post])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.Post, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
