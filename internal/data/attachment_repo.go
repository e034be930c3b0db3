package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/target/forum-api/internal/data/pgxutil"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

const attachmentColumns = `id, post_id, file_name, content_type, size_bytes, storage_key, created_at`

// AttachmentRepo stores attachment metadata. File contents are not kept in the database.
type AttachmentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAttachmentRepo creates a new AttachmentRepo with real time provider.
func NewAttachmentRepo(db *sql.DB) *AttachmentRepo {
	return &AttachmentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create records attachment metadata for an existing post.
func (r *AttachmentRepo) Create(ctx context.Context, req *model.CreateAttachmentRequest) (*model.Attachment, error) {
	if req == nil {
		return nil, errors.New("create attachment request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !isUUID(req.PostID) {
		return nil, ErrPostNotFound
	}

	var out model.Attachment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO attachments (post_id, file_name, content_type, size_bytes, storage_key, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+attachmentColumns,
			req.PostID, req.FileName, req.ContentType, req.SizeBytes, req.StorageKey, r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Attachment])
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

// ListByPost returns a post's attachments in upload order.
func (r *AttachmentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Attachment, error) {
	if !isUUID(postID) {
		return []*model.Attachment{}, nil
	}
	var rowsOut []model.Attachment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+attachmentColumns+` FROM attachments WHERE post_id = $1 ORDER BY created_at ASC, id ASC`, postID)
		if err != nil {
			return err
		}
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Attachment])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	res := make([]*model.Attachment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
