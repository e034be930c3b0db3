//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/forum-api/internal/errors"
)

const maxCommentBodyLen = 5000

// Comment is a reply attached to a post.
type Comment struct {
	ID             string    `json:"id"              db:"id"`
	PostID         string    `json:"post_id"         db:"post_id"`
	AuthorID       string    `json:"author_id"       db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Body           string    `json:"body"            db:"body"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}

// CreateCommentRequest represents parameters to create a Comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// Validate validates CreateCommentRequest.
func (r *CreateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return apperrors.MissingParameters("body")
	}
	if utf8.RuneCountInString(r.Body) > maxCommentBodyLen {
		return apperrors.ValidationField("body", "body cannot exceed 5000 characters")
	}
	return nil
}
