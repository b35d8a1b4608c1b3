package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/imunetrack/imunetrack-api/internal/config"
	"github.com/imunetrack/imunetrack-api/internal/redact"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/sethvargo/go-retry"
)

// setupAppDatabase opens the connection pool and pings the database,
// retrying with exponential backoff while it comes up.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	log = log.With("component", "database", "url", redact.DatabaseURL(cfg.URL))

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(ctx, db, cfg, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("database connection established")
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig, log *slog.Logger) error {
	backoff := retry.WithMaxRetries(cfg.ConnectRetries, retry.NewExponential(cfg.ConnectBackoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			log.Warn("database not reachable yet",
				"attempt", attempt,
				"error", redact.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
	}
	return nil
}
