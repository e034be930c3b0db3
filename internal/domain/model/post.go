//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/forum-api/internal/errors"
)

const (
	maxPostTitleLen = 200
	maxPostBodyLen  = 20000
)

// Post is a forum thread opener.
type Post struct {
	ID             string    `json:"id"              db:"id"`
	AuthorID       string    `json:"author_id"       db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Title          string    `json:"title"           db:"title"`
	Body           string    `json:"body"            db:"body"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"      db:"updated_at"`
}

// PostDetail is a post together with its discussion and reactions.
type PostDetail struct {
	Post        *Post         `json:"post"`
	Comments    []*Comment    `json:"comments"`
	Attachments []*Attachment `json:"attachments"`
	LikeCount   int           `json:"like_count"`
	LikedByMe   bool          `json:"liked_by_me"`
}

// PostListOptions controls paging and filtering for listing posts.
// Posts are returned newest first.
type PostListOptions struct {
	Limit    int
	Offset   int
	AuthorID *string // exact match
	Q        *string // substring match on title (ILIKE)
}

// CreatePostRequest represents parameters to create a Post.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdatePostRequest represents parameters to update a Post.
type UpdatePostRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// Validate validates CreatePostRequest.
func (r *CreatePostRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Body) == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return apperrors.MissingParameters(missing...)
	}
	return validatePostFields(&r.Title, &r.Body)
}

// HasUpdates reports whether any field is set in UpdatePostRequest.
func (r *UpdatePostRequest) HasUpdates() bool {
	return r.Title != nil || r.Body != nil
}

// Validate validates UpdatePostRequest, ensuring at least one field is set and values are sane.
func (r *UpdatePostRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return apperrors.ValidationField("title", "title cannot be empty")
		}
		r.Title = &t
	}
	if r.Body != nil && strings.TrimSpace(*r.Body) == "" {
		return apperrors.ValidationField("body", "body cannot be empty")
	}
	return validatePostFields(r.Title, r.Body)
}

func validatePostFields(title, body *string) error {
	if title != nil && utf8.RuneCountInString(*title) > maxPostTitleLen {
		return apperrors.ValidationField("title", "title cannot exceed 200 characters")
	}
	if body != nil && utf8.RuneCountInString(*body) > maxPostBodyLen {
		return apperrors.ValidationField("body", "body cannot exceed 20000 characters")
	}
	return nil
}
