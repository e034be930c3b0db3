package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/core"
	"github.com/target/forum-api/internal/data"
	"github.com/target/forum-api/internal/observability/statsd"
	"github.com/target/forum-api/internal/ports"
	"github.com/target/forum-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Posts    *service.PostService
	Comments *service.CommentService
	Likes    *service.LikeService
	Users    *service.UserService

	// SessionSweeper is set when the session store needs periodic sweeping.
	SessionSweeper ports.SessionSweeper
	// Cache is the Redis cache backing profile caching, when enabled.
	Cache         *data.RedisCacheRepo
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users       *data.UserRepo
	Posts       *data.PostRepo
	Comments    *data.CommentRepo
	Likes       *data.LikeRepo
	Attachments *data.AttachmentRepo
	Cache       *data.RedisCacheRepo
}

// buildObservability configures the StatsD sink. Every metric is tagged with the
// service name and the active session store so memory and redis deployments can be told apart.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig, store config.SessionStoreKind) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		tags := map[string]string{"service": "forum-api", "session_store": string(store)}
		client, err := statsd.NewClient(statsd.Config{
			Enabled:    true,
			Address:    cfg.Metrics.StatsdAddress,
			Prefix:     cfg.Metrics.Prefix,
			GlobalTags: tags,
			Logger:     obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, cacheCfg config.CacheConfig) *serviceRepositories {
	repos := &serviceRepositories{
		Users:       data.NewUserRepo(db),
		Posts:       data.NewPostRepo(db),
		Comments:    data.NewCommentRepo(db),
		Likes:       data.NewLikeRepo(db),
		Attachments: data.NewAttachmentRepo(db),
	}
	if cacheCfg.ProfilesEnabled && redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient, cacheCfg.KeyPrefix)
	}
	return repos
}

// newProfileCache returns nil when caching is disabled; the services treat nil as "no cache".
func newProfileCache(repos *serviceRepositories, cfg config.CacheConfig) *core.ProfileCacheService {
	if repos.Cache == nil {
		return nil
	}
	return core.NewProfileCacheService(core.ProfileCacheServiceOptions{
		Cache:  repos.Cache,
		Config: core.ProfileCacheConfig{TTL: cfg.ProfileTTL},
	})
}

// NewServices creates all application services with their dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability, cfg.Auth.SessionStore)
	repos := buildRepositories(deps.DB, deps.RedisClient, cfg.Cache)
	profiles := newProfileCache(repos, cfg.Cache)

	var sink statsd.Sink
	if observability.MetricsSink != nil {
		sink = observability.MetricsSink
	}

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: deps.RedisClient,
		Users:       repos.Users,
		Metrics:     sink,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	return ServiceContainer{
		Auth: auth.Service,
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:       repos.Posts,
			Comments:    repos.Comments,
			Likes:       repos.Likes,
			Attachments: repos.Attachments,
			Profiles:    profiles,
			Logger:      logger,
		}),
		Comments: service.NewCommentService(service.CommentServiceOptions{
			Posts:    repos.Posts,
			Comments: repos.Comments,
		}),
		Likes: service.NewLikeService(service.LikeServiceOptions{
			Posts: repos.Posts,
			Likes: repos.Likes,
		}),
		Users: service.NewUserService(service.UserServiceOptions{
			Users:    repos.Users,
			Posts:    repos.Posts,
			Profiles: profiles,
			Logger:   logger,
		}),
		SessionSweeper: auth.Sweeper,
		Cache:          repos.Cache,
		Observability:  observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx    context.Context
	cfg    *ServiceOrchestrationConfig
	logger *slog.Logger
	errCh  chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		handles = append(handles, backgroundServiceHandle{
			name: svc.name,
			done: launchBackground(deps.ctx, deps, svc),
		})
	}
	return handles
}

func newSessionReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		name: "session reaper",
		start: func(ctx context.Context) error {
			var sink statsd.Sink
			if deps.cfg.Services.Observability.MetricsSink != nil {
				sink = deps.cfg.Services.Observability.MetricsSink
			}
			return RunSessionReaper(ctx, SessionReaperConfig{
				Sweeper: deps.cfg.Services.SessionSweeper,
				Auth:    deps.cfg.Config.Auth,
				Logger:  deps.logger,
				Metrics: sink,
			})
		},
	}
}

// buildBackgroundServices returns the background loops this deployment needs.
func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	var services []backgroundService
	if deps.cfg.Services.SessionSweeper != nil {
		services = append(services, newSessionReaperBackgroundService(deps))
	}
	return services
}

// RunServicesWithShutdown starts the HTTP server and background services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deps := &serviceStartupDeps{ctx: serviceCtx, cfg: cfg, logger: logger}
	background := buildBackgroundServices(deps)
	// One slot per background service plus the HTTP server.
	deps.errCh = make(chan error, len(background)+1)

	server := StartHTTPServer(&HTTPServerConfig{
		Config:      cfg.Config,
		Services:    cfg.Services,
		DB:          cfg.DB,
		RedisClient: cfg.RedisClient,
		Logger:      logger,
		ErrCh:       deps.errCh,
	})
	handles := startBackgroundServices(deps, background)

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       deps.errCh,
		httpServer:  server,
		logger:      logger,
		backgrounds: handles,
		metrics:     cfg.Services.Observability.MetricsSink,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	metrics     *statsd.Client
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains HTTP first, then cancels background loops and waits for them.
func gracefulStop(cfg shutdownConfig) error {
	var errs []error
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	cfg.cancel()
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if err := cfg.metrics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close statsd client: %w", err))
	}
	return errors.Join(errs...)
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
