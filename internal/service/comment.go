package service

import (
	"context"

	"github.com/target/forum-api/internal/core"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

// CommentServiceOptions groups dependencies for CommentService.
type CommentServiceOptions struct {
	Posts    core.PostRepository
	Comments core.CommentRepository
}

// CommentService handles comments on posts.
type CommentService struct {
	posts    core.PostRepository
	comments core.CommentRepository
}

// NewCommentService constructs a new CommentService.
func NewCommentService(opts CommentServiceOptions) *CommentService {
	return &CommentService{posts: opts.Posts, comments: opts.Comments}
}

// ListByPost returns the comments on an existing post, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// Create adds a comment by actor to postID.
func (s *CommentService) Create(
	ctx context.Context,
	actor domainauth.Identity,
	postID string,
	req *model.CreateCommentRequest,
) (*model.Comment, error) {
	if actor.IsZero() {
		return nil, apperrors.NotLoggedIn()
	}
	if req == nil {
		return nil, apperrors.MissingParameters("body")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.comments.Create(ctx, core.CreateCommentParams{
		PostID:   postID,
		AuthorID: actor.UserID,
		Body:     req.Body,
	})
}

// Delete removes a comment. Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, actor domainauth.Identity, id string) error {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, c.AuthorID, "delete this comment"); err != nil {
		return err
	}
	deleted, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFound("comment not found")
	}
	return nil
}
