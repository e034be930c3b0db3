package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/adapters/memory"
	"github.com/target/forum-api/internal/adapters/passwords"
	redisadapter "github.com/target/forum-api/internal/adapters/redis"
	"github.com/target/forum-api/internal/core"
	"github.com/target/forum-api/internal/observability/statsd"
	"github.com/target/forum-api/internal/ports"
	"github.com/target/forum-api/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// Users backs both credential lookup and registration.
	Users   core.UserRepository
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// AuthBundle is the wired auth service plus the sweeper for stores that need one.
type AuthBundle struct {
	Service *service.AuthService
	// Sweeper is nil when the store expires sessions natively (Redis TTLs).
	Sweeper ports.SessionSweeper
}

// BuildSessionStore selects the session backend named by SESSION_STORE.
//
//nolint:ireturn // the store kind is a deployment choice.
func BuildSessionStore(cfg AuthConfig) (ports.SessionStore, ports.SessionSweeper, error) {
	switch cfg.Auth.SessionStore {
	case config.SessionStoreRedis:
		if cfg.RedisClient == nil {
			return nil, nil, errors.New("redis session store selected but redis client not configured")
		}
		store, err := redisadapter.NewSessionStore(redisadapter.SessionStoreOptions{
			Client:        cfg.RedisClient,
			Prefix:        cfg.Auth.SessionKeyPrefix,
			IdleTimeout:   cfg.Auth.SessionIdleTimeout,
			SingleSession: cfg.Auth.SingleSessionPerUser(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, nil, nil

	case config.SessionStoreMemory, "":
		store := memory.NewSessionStore(memory.SessionStoreOptions{
			IdleTimeout:   cfg.Auth.SessionIdleTimeout,
			SingleSession: cfg.Auth.SingleSessionPerUser(),
		})
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Auth.SessionStore)
	}
}

// BuildAuthService wires the credential verifier, password hasher and session store.
func BuildAuthService(cfg AuthConfig) (AuthBundle, error) {
	if cfg.Users == nil {
		return AuthBundle{}, errors.New("user repository is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, sweeper, err := BuildSessionStore(cfg)
	if err != nil {
		return AuthBundle{}, err
	}
	logger.Info("session store configured",
		"kind", cfg.Auth.SessionStore,
		"idle_timeout", cfg.Auth.SessionIdleTimeout,
		"single_session", cfg.Auth.SingleSessionPerUser(),
	)

	svc := service.NewAuthService(service.AuthServiceOptions{
		Credentials: cfg.Users,
		Hasher:      passwords.NewBcryptHasher(cfg.Auth.BcryptCost),
		Sessions:    sessions,
		Users:       cfg.Users,
		Metrics:     cfg.Metrics,
		Logger:      logger,
	})
	return AuthBundle{Service: svc, Sweeper: sweeper}, nil
}
