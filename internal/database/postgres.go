// Package database implements the durable stores on PostgreSQL.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the schema idempotently.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id TEXT PRIMARY KEY,
			money BIGINT NOT NULL DEFAULT 500,
			prestige INT NOT NULL DEFAULT 0,
			tier INT NOT NULL DEFAULT 0,
			guild_level INT NOT NULL DEFAULT 0,
			xp BIGINT NOT NULL DEFAULT 0,
			default_bet BIGINT NOT NULL DEFAULT 0,
			voted BOOLEAN NOT NULL DEFAULT FALSE,
			booster BOOLEAN NOT NULL DEFAULT FALSE,
			passive BOOLEAN NOT NULL DEFAULT FALSE,
			vote_reminder BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			user_id TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
			item TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, item)
		)`,
		`CREATE TABLE IF NOT EXISTS boosters (
			user_id TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
			item TEXT NOT NULL,
			kind TEXT NOT NULL,
			effect DOUBLE PRECISION NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, item)
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			game TEXT NOT NULL,
			win INT NOT NULL,
			bet BIGINT NOT NULL,
			earned BIGINT NOT NULL DEFAULT 0,
			xp_earned BIGINT NOT NULL DEFAULT 0,
			board TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_user_id ON outcomes(user_id)`,
		`CREATE TABLE IF NOT EXISTS pending_rounds (
			token UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			bet BIGINT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_rounds_started_at ON pending_rounds(started_at)`,
		`CREATE TABLE IF NOT EXISTS achievement_progress (
			user_id TEXT NOT NULL,
			achievement TEXT NOT NULL,
			progress BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, achievement)
		)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
