package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/bootstrap"
	"github.com/target/forum-api/internal/data"
	"github.com/target/forum-api/internal/domain/model"
)

const defaultUserCommandTimeout = 30 * time.Second

type createUserOptions struct {
	Username      string
	Password      string
	PasswordStdin bool
	Email         string
}

type purgeSessionsOptions struct {
	Username string
	Yes      bool
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args)
	if err != nil {
		return err
	}
	if opts.PasswordStdin {
		if opts.Password, err = readPassword(os.Stdin); err != nil {
			return err
		}
	}

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		// Registration never touches sessions, so the in-process store is enough here.
		authCfg := cmdCtx.Config.Auth
		authCfg.SessionStore = config.SessionStoreMemory

		bundle, buildErr := bootstrap.BuildAuthService(bootstrap.AuthConfig{
			Auth:   authCfg,
			Users:  data.NewUserRepo(db),
			Logger: cmdCtx.Logger,
		})
		if buildErr != nil {
			return buildErr
		}

		req := &model.RegisterRequest{Username: opts.Username, Password: opts.Password}
		if opts.Email != "" {
			req.Email = &opts.Email
		}
		user, regErr := bundle.Service.Register(ctx, req)
		if regErr != nil {
			return fmt.Errorf("register user: %w", regErr)
		}

		cmdCtx.Logger.Info("user created", "username", user.Username, "user_id", user.ID)
		return writef(os.Stdout, "created user %s (%s)\n", user.Username, user.ID)
	})
}

func runPurgeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeSessionsFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Auth.SessionStore != config.SessionStoreRedis {
		return errors.New("purge-sessions needs SESSION_STORE=redis; in-memory sessions end when the server restarts")
	}
	if confirmErr := confirmAction(purgeConfirmOptions{opts}, "end all sessions"); confirmErr != nil {
		return confirmErr
	}

	redisClient, err := bootstrap.ConnectRedis(cmdCtx.Ctx, bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		RedisUses:   []string{"sessions"},
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return withDatabase(cmdCtx, defaultUserCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		return purgeUserSessions(ctx, cmdCtx, db, redisClient, opts.Username)
	})
}

func purgeUserSessions(
	ctx context.Context,
	cmdCtx *commandContext,
	db *sql.DB,
	redisClient redis.UniversalClient,
	username string,
) error {
	users := data.NewUserRepo(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup user %q: %w", username, err)
	}

	bundle, err := bootstrap.BuildAuthService(bootstrap.AuthConfig{
		Auth:        cmdCtx.Config.Auth,
		RedisClient: redisClient,
		Users:       users,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	n, err := bundle.Service.EndUserSessions(ctx, user.ID)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Info("sessions purged", "username", user.Username, "count", n)
	return writef(os.Stdout, "ended %d session(s) for %s\n", n, user.Username)
}

func parseCreateUserFlags(args []string) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createUserOptions
	fs.StringVar(&opts.Username, "username", "", "Username for the new account")
	fs.StringVar(&opts.Password, "password", "", "Password for the new account")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")
	fs.StringVar(&opts.Email, "email", "", "Optional email address")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}

	opts.Username = strings.TrimSpace(opts.Username)
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Username == "" {
		return createUserOptions{}, errors.New("--username is required")
	}
	if opts.PasswordStdin && opts.Password != "" {
		return createUserOptions{}, errors.New("use either --password or --password-stdin, not both")
	}
	if !opts.PasswordStdin && opts.Password == "" {
		return createUserOptions{}, errors.New("--password or --password-stdin is required")
	}
	return opts, nil
}

func parsePurgeSessionsFlags(args []string) (purgeSessionsOptions, error) {
	fs := flag.NewFlagSet("purge-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts purgeSessionsOptions
	fs.StringVar(&opts.Username, "username", "", "User whose sessions should end")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return purgeSessionsOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return purgeSessionsOptions{}, errors.New("--username is required")
	}
	return opts, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

type purgeConfirmOptions struct {
	opts purgeSessionsOptions
}

func (p purgeConfirmOptions) IsYes() bool { return p.opts.Yes }
func (p purgeConfirmOptions) GetWarning() string {
	return "WARNING: the user will be logged out everywhere."
}
func (p purgeConfirmOptions) GetTarget() string { return fmt.Sprintf("user %q", p.opts.Username) }
