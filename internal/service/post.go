package service

import (
	"context"
	"log/slog"

	"github.com/target/forum-api/internal/core"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"golang.org/x/sync/errgroup"
)

// PostServiceOptions groups dependencies for PostService.
type PostServiceOptions struct {
	Posts       core.PostRepository
	Comments    core.CommentRepository
	Likes       core.LikeRepository
	Attachments core.AttachmentRepository
	Profiles    *core.ProfileCacheService // optional
	Logger      *slog.Logger
}

// PostService orchestrates post CRUD with ownership checks.
type PostService struct {
	posts       core.PostRepository
	comments    core.CommentRepository
	likes       core.LikeRepository
	attachments core.AttachmentRepository
	profiles    *core.ProfileCacheService
	logger      *slog.Logger
}

// NewPostService constructs a new PostService.
func NewPostService(opts PostServiceOptions) *PostService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		posts:       opts.Posts,
		comments:    opts.Comments,
		likes:       opts.Likes,
		attachments: opts.Attachments,
		profiles:    opts.Profiles,
		logger:      logger,
	}
}

// Create publishes a post authored by actor.
func (s *PostService) Create(ctx context.Context, actor domainauth.Identity, req *model.CreatePostRequest) (*model.Post, error) {
	if actor.IsZero() {
		return nil, apperrors.NotLoggedIn()
	}
	post, err := s.posts.Create(ctx, actor.UserID, req)
	if err != nil {
		return nil, err
	}
	s.invalidateProfile(ctx, actor.UserID)
	return post, nil
}

// List returns posts newest first.
func (s *PostService) List(ctx context.Context, opts model.PostListOptions) ([]*model.Post, error) {
	return s.posts.List(ctx, opts)
}

// GetByID returns a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// GetDetail loads a post with its comments, attachments and like information in parallel.
func (s *PostService) GetDetail(ctx context.Context, actor domainauth.Identity, id string) (*model.PostDetail, error) {
	var detail model.PostDetail
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.posts.GetByID(gctx, id)
		detail.Post = p
		return err
	})
	g.Go(func() error {
		c, err := s.comments.ListByPost(gctx, id)
		detail.Comments = c
		return err
	})
	g.Go(func() error {
		a, err := s.attachments.ListByPost(gctx, id)
		detail.Attachments = a
		return err
	})
	g.Go(func() error {
		n, err := s.likes.CountByPost(gctx, id)
		detail.LikeCount = n
		return err
	})
	if !actor.IsZero() {
		g.Go(func() error {
			liked, err := s.likes.Exists(gctx, id, actor.UserID)
			detail.LikedByMe = liked
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if detail.Comments == nil {
		detail.Comments = []*model.Comment{}
	}
	if detail.Attachments == nil {
		detail.Attachments = []*model.Attachment{}
	}
	return &detail, nil
}

// Update edits a post. Only its author may do so.
func (s *PostService) Update(
	ctx context.Context,
	actor domainauth.Identity,
	id string,
	req *model.UpdatePostRequest,
) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, post.AuthorID, "update this post"); err != nil {
		return nil, err
	}
	return s.posts.Update(ctx, id, req)
}

// Delete removes a post and everything attached to it. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, actor domainauth.Identity, id string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, post.AuthorID, "delete this post"); err != nil {
		return err
	}
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFound("post not found")
	}
	s.invalidateProfile(ctx, post.AuthorID)
	return nil
}

// ListAttachments returns attachment metadata for an existing post.
func (s *PostService) ListAttachments(ctx context.Context, postID string) ([]*model.Attachment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.attachments.ListByPost(ctx, postID)
}

// AddAttachment records attachment metadata on a post owned by actor.
func (s *PostService) AddAttachment(
	ctx context.Context,
	actor domainauth.Identity,
	req *model.CreateAttachmentRequest,
) (*model.Attachment, error) {
	if req == nil {
		return nil, apperrors.MissingParameters("post_id", "file_name")
	}
	post, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, post.AuthorID, "attach files to this post"); err != nil {
		return nil, err
	}
	return s.attachments.Create(ctx, req)
}

func (s *PostService) invalidateProfile(ctx context.Context, userID string) {
	if err := s.profiles.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", "user_id", userID, "error", err)
	}
}

// requireOwner fails with NotLoggedIn for anonymous actors and Unauthorized(action) for everyone but the owner.
func requireOwner(actor domainauth.Identity, ownerID, action string) error {
	if actor.IsZero() {
		return apperrors.NotLoggedIn()
	}
	if actor.UserID != ownerID {
		return apperrors.Unauthorized(action)
	}
	return nil
}
