package service

import (
	"context"
	"log/slog"

	"github.com/target/forum-api/internal/core"
	"github.com/target/forum-api/internal/domain/model"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Users    core.UserRepository
	Posts    core.PostRepository
	Profiles *core.ProfileCacheService // optional
	Logger   *slog.Logger
}

// UserService serves public user profiles.
type UserService struct {
	users    core.UserRepository
	posts    core.PostRepository
	profiles *core.ProfileCacheService
	logger   *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: opts.Users, posts: opts.Posts, profiles: opts.Profiles, logger: logger}
}

// Profile returns the public profile for id, served from cache when possible.
// Cache failures degrade to a database read.
func (s *UserService) Profile(ctx context.Context, id string) (*model.UserProfile, error) {
	if p, ok, err := s.profiles.Get(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "profile cache read failed", "user_id", id, "error", err)
	} else if ok {
		return p, nil
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.posts.CountByAuthor(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	p := &model.UserProfile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, PostCount: n}
	if err := s.profiles.Put(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "profile cache write failed", "user_id", id, "error", err)
	}
	return p, nil
}
