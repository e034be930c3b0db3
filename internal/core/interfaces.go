package core

import (
	"context"

	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	FindCredential(ctx context.Context, username string) (domainauth.Credential, error)
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, authorID string, req *model.CreatePostRequest) (*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, opts model.PostListOptions) ([]*model.Post, error)
	Update(ctx context.Context, id string, req *model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, params CreateCommentParams) (*model.Comment, error)
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateCommentParams groups parameters for CommentRepository.Create.
type CreateCommentParams struct {
	PostID   string
	AuthorID string
	Body     string
}

// LikeRepository defines the interface for like data operations.
type LikeRepository interface {
	// Like records a like and reports whether it was newly created.
	Like(ctx context.Context, postID, userID string) (bool, error)
	// Unlike removes a like and reports whether one existed.
	Unlike(ctx context.Context, postID, userID string) (bool, error)
	CountByPost(ctx context.Context, postID string) (int, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Like, error)
	Exists(ctx context.Context, postID, userID string) (bool, error)
}

// AttachmentRepository defines the interface for attachment metadata operations.
type AttachmentRepository interface {
	Create(ctx context.Context, req *model.CreateAttachmentRequest) (*model.Attachment, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Attachment, error)
}
