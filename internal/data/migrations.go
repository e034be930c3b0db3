package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/forum-api/internal/migrate"
)

// RunMigrations executes database migrations to set up the required schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	res, err := migrate.Run(ctx, db)
	if err != nil {
		return err
	}
	slog.Default().DebugContext(ctx, "schema up to date",
		"applied", len(res.Applied), "already_applied", len(res.Skipped))
	return nil
}
