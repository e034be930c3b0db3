package data

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/target/forum-api/internal/errors"
)

// Shared sentinel errors for data-layer repositories.
// They are AppErrors so the HTTP layer maps them without further translation.
var (
	ErrUserNotFound       = apperrors.NotFound("user not found")
	ErrPostNotFound       = apperrors.NotFound("post not found")
	ErrCommentNotFound    = apperrors.NotFound("comment not found")
	ErrAttachmentNotFound = apperrors.NotFound("attachment not found")

	ErrUsernameTaken = &apperrors.AppError{
		Code:    apperrors.ErrCodeConflict,
		Message: "Username is already taken.",
		Field:   "username",
	}
)

// mapNotFound converts a NotFound mapped from pgx.ErrNoRows into the repository's sentinel.
func mapNotFound(err, sentinel error) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return sentinel
	}
	return mapped
}

// isUUID reports whether id can address a UUID primary key. Anything else cannot exist.
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}

// violatesForeignKey reports whether err is a foreign key violation on a constraint naming column,
// e.g. "comments_post_id_fkey" for "post_id".
func violatesForeignKey(err error, column string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
		return false
	}
	return strings.Contains(pgErr.ConstraintName, "_"+column+"_")
}
