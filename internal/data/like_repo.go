package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/target/forum-api/internal/data/pgxutil"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

// LikeRepo provides database operations for likes. A user likes a post at most once.
type LikeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewLikeRepo creates a new LikeRepo with real time provider.
func NewLikeRepo(db *sql.DB) *LikeRepo {
	return &LikeRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewLikeRepoWithTimeProvider creates a new LikeRepo with a custom time provider.
func NewLikeRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *LikeRepo {
	return &LikeRepo{DB: db, timeProvider: tp}
}

// Like records userID's like of postID. It returns false when the like already existed.
func (r *LikeRepo) Like(ctx context.Context, postID, userID string) (bool, error) {
	if !isUUID(postID) {
		return false, ErrPostNotFound
	}

	var created bool
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		// Lock the post row so a concurrent delete cannot slip between the check and the insert.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT true FROM posts WHERE id = $1 FOR SHARE`, postID).Scan(&exists); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO likes (post_id, user_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT likes_post_id_user_id_key DO NOTHING`,
			postID, userID, r.timeProvider.Now().UTC(),
		)
		created = tag.RowsAffected() == 1
		return err
	}})
	if err != nil {
		return false, mapNotFound(err, ErrPostNotFound)
	}
	return created, nil
}

// Unlike removes userID's like of postID and reports whether one existed.
func (r *LikeRepo) Unlike(ctx context.Context, postID, userID string) (bool, error) {
	if !isUUID(postID) || !isUUID(userID) {
		return false, nil
	}
	var removed bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		removed = tag.RowsAffected() > 0
		return err
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return removed, nil
}

// CountByPost returns the number of likes on postID.
func (r *LikeRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	if !isUUID(postID) {
		return 0, nil
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}

// ListByPost returns who liked postID, most recent first.
func (r *LikeRepo) ListByPost(ctx context.Context, postID string) ([]*model.Like, error) {
	if !isUUID(postID) {
		return []*model.Like{}, nil
	}
	var rowsOut []model.Like
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT l.post_id, l.user_id, u.username, l.created_at
			FROM likes l
			JOIN users u ON u.id = l.user_id
			WHERE l.post_id = $1
			ORDER BY l.created_at DESC, u.username ASC`, postID)
		if err != nil {
			return err
		}
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Like])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.Like, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Exists reports whether userID likes postID.
func (r *LikeRepo) Exists(ctx context.Context, postID, userID string) (bool, error) {
	if !isUUID(postID) || !isUUID(userID) {
		return false, nil
	}
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`, postID, userID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return exists, nil
}
