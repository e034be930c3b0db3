package service

import (
	"context"

	"github.com/target/forum-api/internal/core"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
)

// LikeServiceOptions groups dependencies for LikeService.
type LikeServiceOptions struct {
	Posts core.PostRepository
	Likes core.LikeRepository
}

// LikeService records and reports likes. Liking twice is a no-op.
type LikeService struct {
	posts core.PostRepository
	likes core.LikeRepository
}

// NewLikeService constructs a new LikeService.
func NewLikeService(opts LikeServiceOptions) *LikeService {
	return &LikeService{posts: opts.Posts, likes: opts.Likes}
}

// Summary returns the like count and likers for postID, from actor's point of view.
func (s *LikeService) Summary(ctx context.Context, actor domainauth.Identity, postID string) (*model.LikeSummary, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	likes, err := s.likes.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := &model.LikeSummary{PostID: postID, Count: len(likes), Likes: likes}
	for _, l := range likes {
		if l.UserID == actor.UserID {
			out.LikedByMe = true
			break
		}
	}
	return out, nil
}

// Like records actor's like of postID and returns the updated summary.
func (s *LikeService) Like(ctx context.Context, actor domainauth.Identity, postID string) (*model.LikeSummary, error) {
	if actor.IsZero() {
		return nil, apperrors.NotLoggedIn()
	}
	if _, err := s.likes.Like(ctx, postID, actor.UserID); err != nil {
		return nil, err
	}
	return s.counted(ctx, postID, true)
}

// Unlike removes actor's like of postID, if any, and returns the updated summary.
func (s *LikeService) Unlike(ctx context.Context, actor domainauth.Identity, postID string) (*model.LikeSummary, error) {
	if actor.IsZero() {
		return nil, apperrors.NotLoggedIn()
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.likes.Unlike(ctx, postID, actor.UserID); err != nil {
		return nil, err
	}
	return s.counted(ctx, postID, false)
}

func (s *LikeService) counted(ctx context.Context, postID string, likedByMe bool) (*model.LikeSummary, error) {
	n, err := s.likes.CountByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &model.LikeSummary{PostID: postID, Count: n, LikedByMe: likedByMe}, nil
}
