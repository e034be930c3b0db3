//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"mime"
	"path"
	"strings"
	"time"

	apperrors "github.com/target/forum-api/internal/errors"
)

const (
	maxAttachmentNameLen = 255
	// MaxAttachmentBytes bounds the size recorded for an attachment.
	MaxAttachmentBytes int64 = 25 << 20
)

// Attachment is metadata for a file attached to a post. The bytes live elsewhere.
type Attachment struct {
	ID          string    `json:"id"           db:"id"`
	PostID      string    `json:"post_id"      db:"post_id"`
	FileName    string    `json:"file_name"    db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes"   db:"size_bytes"`
	StorageKey  string    `json:"-"            db:"storage_key"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// CreateAttachmentRequest represents parameters to record attachment metadata.
type CreateAttachmentRequest struct {
	PostID      string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
}

// Validate validates CreateAttachmentRequest and normalizes its file name and content type.
func (r *CreateAttachmentRequest) Validate() error {
	if strings.TrimSpace(r.PostID) == "" {
		return apperrors.MissingParameters("post_id")
	}
	name := path.Base(strings.TrimSpace(r.FileName))
	if name == "" || name == "." || name == "/" {
		return apperrors.MissingParameters("file_name")
	}
	if len(name) > maxAttachmentNameLen {
		return apperrors.ValidationField("file_name", "file_name cannot exceed 255 characters")
	}
	r.FileName = name

	if r.ContentType == "" {
		r.ContentType = "application/octet-stream"
	}
	if _, _, err := mime.ParseMediaType(r.ContentType); err != nil {
		return apperrors.ValidationField("content_type", "content_type is not a valid media type")
	}
	if r.SizeBytes < 0 || r.SizeBytes > MaxAttachmentBytes {
		return apperrors.ValidationField("size_bytes", "size_bytes must be between 0 and 25MiB")
	}
	if r.StorageKey == "" {
		r.StorageKey = r.PostID + "/" + r.FileName
	}
	return nil
}
