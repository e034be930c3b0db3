package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/target/forum-api/internal/core"
	"github.com/target/forum-api/internal/data/pgxutil"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username AS author_username, c.body, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// CommentRepo provides database operations for comments.
type CommentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCommentRepo creates a new CommentRepo with real time provider.
func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCommentRepoWithTimeProvider creates a new CommentRepo with a custom time provider.
func NewCommentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CommentRepo {
	return &CommentRepo{DB: db, timeProvider: tp}
}

// Create inserts a comment. A missing post surfaces as ErrPostNotFound.
func (r *CommentRepo) Create(ctx context.Context, params core.CreateCommentParams) (*model.Comment, error) {
	if params.AuthorID == "" || params.Body == "" {
		return nil, errors.New("author and body are required")
	}
	if !isUUID(params.PostID) {
		return nil, ErrPostNotFound
	}

	var out model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			WITH inserted AS (
				INSERT INTO comments (post_id, author_id, body, created_at)
				VALUES ($1, $2, $3, $4)
				RETURNING id, post_id, author_id, body, created_at
			)
			SELECT i.id, i.post_id, i.author_id, u.username AS author_username, i.body, i.created_at
			FROM inserted i JOIN users u ON u.id = i.author_id`,
			params.PostID, params.AuthorID, params.Body, r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Comment])
		return err
	})
	if err != nil {
		if violatesForeignKey(err, "post_id") {
			return nil, ErrPostNotFound
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a comment by ID.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	if !isUUID(id) {
		return nil, ErrCommentNotFound
	}
	var out model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, commentSelect+` WHERE c.id = $1`, id)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Comment])
		return err
	})
	if err != nil {
		return nil, mapNotFound(err, ErrCommentNotFound)
	}
	return &out, nil
}

// ListByPost returns a post's comments oldest first.
func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	if !isUUID(postID) {
		return []*model.Comment{}, nil
	}
	var rowsOut []model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at ASC, c.id ASC`, postID)
		if err != nil {
			return err
		}
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Comment])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.Comment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete removes a comment and reports whether it existed.
func (r *CommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
