package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/data"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	// RedisUses names what the Redis connection backs (sessions, profile-cache); logged on connect.
	RedisUses []string
	Logger    *slog.Logger
}

// postgresDSN builds the pgx DSN; url.URL escapes credentials.
func postgresDSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnectDB opens the forum's PostgreSQL pool (users, posts, comments, likes, attachments).
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Request handlers and the errgroup fan-out in post detail share this pool.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingOrClose(ctx, "database", db.PingContext, db); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "forum database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}
	return db, nil
}

// ConnectRedis dials Redis for the session store and/or the profile cache.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	var (
		client redis.UniversalClient
		mode   string
		addr   string
		err    error
	)

	switch {
	case cfg.RedisConfig.UseCluster:
		mode = "cluster"
		client, addr, err = newClusterClient(cfg.RedisConfig)
	case cfg.RedisConfig.UseSentinel:
		mode = "sentinel"
		client, addr, err = newSentinelClient(cfg.RedisConfig)
	default:
		mode = "direct"
		client, addr, err = newDirectClient(cfg.RedisConfig)
	}
	if err != nil {
		return nil, err
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := pingOrClose(ctx, "redis", ping, client); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "redis connected",
			"mode", mode,
			"addr", addr,
			"uses", cfg.RedisUses,
		)
	}
	return client, nil
}

// pingOrClose verifies a fresh connection and releases it when the ping fails.
func pingOrClose(ctx context.Context, name string, ping func(context.Context) error, c io.Closer) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err := ping(ctx)
	if err == nil {
		return nil
	}
	if closeErr := c.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close %s: %w", name, closeErr))
	}
	return fmt.Errorf("ping %s: %w", name, err)
}

// redisTarget is the outcome of reading REDIS_URI, which may be a bare host:port or a redis:// URL.
type redisTarget struct {
	addr     string
	username string
	password string
	db       int
	tls      *tls.Config
}

func parseRedisTarget(uri, defaultPassword string) (redisTarget, error) {
	uri = strings.TrimSpace(uri)
	t := redisTarget{addr: uri, password: defaultPassword}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return t, nil
	}

	opt, err := redis.ParseURL(uri)
	if err != nil {
		return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
	}
	t.addr = opt.Addr
	t.username = opt.Username
	t.db = opt.DB
	t.tls = opt.TLSConfig
	if opt.Password != "" {
		t.password = opt.Password
	}
	return t, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	opts := &redis.ClusterOptions{Password: cfg.Password}
	for _, addr := range cfg.ClusterNodes {
		if addr = strings.TrimSpace(addr); addr != "" {
			opts.Addrs = append(opts.Addrs, addr)
		}
	}

	if len(opts.Addrs) == 0 && strings.TrimSpace(cfg.URI) != "" {
		target, err := parseRedisTarget(cfg.URI, cfg.Password)
		if err != nil {
			return nil, "", err
		}
		opts.Addrs = []string{target.addr}
		opts.Username = target.username
		opts.Password = target.password
		opts.TLSConfig = target.tls
	}
	if len(opts.Addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}

	return redis.NewClusterClient(opts), strings.Join(opts.Addrs, ","), nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if len(cfg.SentinelNodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    cfg.SentinelNodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, cfg.SentinelMasterName, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}
	target, err := parseRedisTarget(cfg.URI, cfg.Password)
	if err != nil {
		return nil, "", err
	}

	client := redis.NewClient(&redis.Options{
		Addr:      target.addr,
		Username:  target.username,
		Password:  target.password,
		DB:        target.db,
		TLSConfig: target.tls,
	})
	// target.addr never carries credentials, so it is safe to log.
	return client, target.addr, nil
}

// RunMigrations runs database migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
