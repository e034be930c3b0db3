package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/forum-api/internal/adapters/memory"
	"github.com/target/forum-api/internal/adapters/passwords"
	"github.com/target/forum-api/internal/data"
	domainauth "github.com/target/forum-api/internal/domain/auth"
	"github.com/target/forum-api/internal/domain/model"
	apperrors "github.com/target/forum-api/internal/errors"
	"github.com/target/forum-api/internal/service"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "forum-dev-password"

type registrar interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

type userLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type postWriter interface {
	Create(ctx context.Context, actor domainauth.Identity, req *model.CreatePostRequest) (*model.Post, error)
	List(ctx context.Context, opts model.PostListOptions) ([]*model.Post, error)
}

type commentWriter interface {
	Create(ctx context.Context, actor domainauth.Identity, postID string, req *model.CreateCommentRequest) (*model.Comment, error)
}

type liker interface {
	Like(ctx context.Context, actor domainauth.Identity, postID string) (*model.LikeSummary, error)
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Auth     registrar
	Users    userLookup
	Posts    postWriter
	Comments commentWriter
	Likes    liker
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB, bcryptCost int) Services {
	users := data.NewUserRepo(db)
	posts := data.NewPostRepo(db)
	comments := data.NewCommentRepo(db)
	likes := data.NewLikeRepo(db)

	// Seeding never logs anyone in; the store only satisfies the service.
	auth := service.NewAuthService(service.AuthServiceOptions{
		Credentials: users,
		Hasher:      passwords.NewBcryptHasher(bcryptCost),
		Sessions:    memory.NewSessionStore(memory.SessionStoreOptions{}),
		Users:       users,
	})

	return Services{
		Auth:  auth,
		Users: users,
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:       posts,
			Comments:    comments,
			Likes:       likes,
			Attachments: data.NewAttachmentRepo(db),
		}),
		Comments: service.NewCommentService(service.CommentServiceOptions{Posts: posts, Comments: comments}),
		Likes:    service.NewLikeService(service.LikeServiceOptions{Posts: posts, Likes: likes}),
	}
}

type seedPost struct {
	Author   string
	Title    string
	Body     string
	Comments []seedComment
	LikedBy  []string
}

type seedComment struct {
	Author string
	Body   string
}

var defaultUsers = []string{"alice", "bob", "carol"}

func defaultPosts() []seedPost {
	return []seedPost{
		{
			Author: "alice",
			Title:  "Welcome to the forum",
			Body:   "Introduce yourself here. Be kind and stay on topic.",
			Comments: []seedComment{
				{Author: "bob", Body: "Hi all, bob here."},
				{Author: "carol", Body: "Hello! Glad to be here."},
			},
			LikedBy: []string{"bob", "carol"},
		},
		{
			Author: "bob",
			Title:  "Favourite mechanical keyboards?",
			Body:   "Looking for something quiet for the office.",
			Comments: []seedComment{
				{Author: "alice", Body: "Anything with silent linear switches."},
			},
			LikedBy: []string{"alice"},
		},
		{
			Author: "carol",
			Title:  "Weekend hiking thread",
			Body:   "Post your routes and photos.",
		},
	}
}

// Run executes the full development seeding workflow. It is safe to re-run:
// existing users are reused and authors that already have posts are skipped.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	users, err := seedUsers(ctx, svcs, logger)
	if err != nil {
		return err
	}

	failures := 0
	for _, p := range defaultPosts() {
		if seedErr := seedOnePost(ctx, svcs, users, p, logger); seedErr != nil {
			logger.ErrorContext(ctx, "failed to seed post", "title", p.Title, "error", seedErr)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedUsers(ctx context.Context, svcs Services, logger *slog.Logger) (map[string]domainauth.Identity, error) {
	out := make(map[string]domainauth.Identity, len(defaultUsers))
	for _, name := range defaultUsers {
		user, created, err := ensureUser(ctx, svcs, name)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", name, err)
		}
		msg := "user already exists"
		if created {
			msg = "created user"
		}
		logger.InfoContext(ctx, msg, "username", name)
		out[name] = domainauth.Identity{UserID: user.ID, Username: user.Username}
	}
	return out, nil
}

func ensureUser(ctx context.Context, svcs Services, name string) (*model.User, bool, error) {
	user, err := svcs.Auth.Register(ctx, &model.RegisterRequest{Username: name, Password: DefaultPassword})
	if err == nil {
		return user, true, nil
	}
	if !apperrors.IsConflict(err) {
		return nil, false, err
	}
	user, err = svcs.Users.GetByUsername(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

func seedOnePost(
	ctx context.Context,
	svcs Services,
	users map[string]domainauth.Identity,
	p seedPost,
	logger *slog.Logger,
) error {
	author := users[p.Author]
	existing, err := svcs.Posts.List(ctx, model.PostListOptions{Limit: 1, AuthorID: &author.UserID, Q: &p.Title})
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "post already exists", "title", p.Title)
		return nil
	}

	post, err := svcs.Posts.Create(ctx, author, &model.CreatePostRequest{Title: p.Title, Body: p.Body})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	for _, c := range p.Comments {
		if _, err = svcs.Comments.Create(ctx, users[c.Author], post.ID, &model.CreateCommentRequest{Body: c.Body}); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}
	for _, name := range p.LikedBy {
		if _, err = svcs.Likes.Like(ctx, users[name], post.ID); err != nil {
			return fmt.Errorf("like post: %w", err)
		}
	}
	logger.InfoContext(ctx, "created post", "title", p.Title, "comments", len(p.Comments), "likes", len(p.LikedBy))
	return nil
}
