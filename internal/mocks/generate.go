// Package mocks provides gomock implementations of the forum's ports and repositories.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	sessions := mocks.NewMockSessionStore(ctrl)
//	sessions.EXPECT().Read(gomock.Any(), "abc").Return(session, nil)
package mocks

// Auth ports from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/target/forum-api/internal/ports CredentialStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_hasher_mock.go github.com/target/forum-api/internal/ports PasswordHasher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/forum-api/internal/ports SessionStore

// Repository ports from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/forum-api/internal/core UserRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=post_repository_mock.go github.com/target/forum-api/internal/core PostRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=comment_repository_mock.go github.com/target/forum-api/internal/core CommentRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=like_repository_mock.go github.com/target/forum-api/internal/core LikeRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=attachment_repository_mock.go github.com/target/forum-api/internal/core AttachmentRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/forum-api/internal/core CacheRepository
