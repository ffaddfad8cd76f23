package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerworks/towerd/internal/domain"
)

// RoundRepo implements domain.RoundRepository backed by PostgreSQL. The
// pending row is the durable record that a bet is escrowed; whoever deletes
// it owns the corresponding credit.
type RoundRepo struct {
	pool *pgxpool.Pool
}

// NewRoundRepo creates a RoundRepo on the shared pool.
func NewRoundRepo(pool *pgxpool.Pool) *RoundRepo {
	return &RoundRepo{pool: pool}
}

func (r *RoundRepo) Create(ctx context.Context, round domain.PendingRound) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO pending_rounds (token, user_id, bet, started_at)
		VALUES ($1, $2, $3, $4)
	`, round.Token, round.UserID, round.Bet, round.StartedAt); err != nil {
		return fmt.Errorf("failed to create pending round: %w", err)
	}
	return nil
}

func (r *RoundRepo) Delete(ctx context.Context, token uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM pending_rounds WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to delete pending round: %w", err)
	}
	return nil
}

func (r *RoundRepo) ListStale(ctx context.Context, olderThan time.Time) ([]domain.PendingRound, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token, user_id, bet, started_at
		FROM pending_rounds
		WHERE started_at < $1
		ORDER BY started_at
	`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.PendingRound
	for rows.Next() {
		var p domain.PendingRound
		if err := rows.Scan(&p.Token, &p.UserID, &p.Bet, &p.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending round: %w", err)
		}
		rounds = append(rounds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending rounds: %w", err)
	}
	return rounds, nil
}

// Reclaim refunds the escrowed bet and deletes the pending row in one
// transaction. The DELETE is the arbiter: if another sweeper got there
// first, zero rows are affected and no refund happens.
func (r *RoundRepo) Reclaim(ctx context.Context, token uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin reclaim transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var (
		userID string
		bet    int64
	)
	err = tx.QueryRow(ctx, `
		DELETE FROM pending_rounds WHERE token = $1
		RETURNING user_id, bet
	`, token).Scan(&userID, &bet)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete pending round: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts
		SET money = money + $1, updated_at = NOW()
		WHERE user_id = $2
	`, bet, userID); err != nil {
		return false, fmt.Errorf("failed to refund escrowed bet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit reclaim: %w", err)
	}
	return true, nil
}
