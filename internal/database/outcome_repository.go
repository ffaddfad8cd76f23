package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerworks/towerd/internal/domain"
)

// OutcomeRepo implements domain.OutcomeRepository backed by PostgreSQL.
// Outcomes are append-only; nothing updates or deletes them.
type OutcomeRepo struct {
	pool *pgxpool.Pool
}

// NewOutcomeRepo creates an OutcomeRepo on the shared pool.
func NewOutcomeRepo(pool *pgxpool.Pool) *OutcomeRepo {
	return &OutcomeRepo{pool: pool}
}

func (r *OutcomeRepo) Create(ctx context.Context, outcome *domain.Outcome) (uuid.UUID, error) {
	win := 0
	if outcome.Win {
		win = 1
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO outcomes (user_id, game, win, bet, earned, xp_earned, board, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, outcome.UserID, outcome.Game, win, outcome.Bet, outcome.Earned,
		outcome.XPEarned, outcome.Board, string(outcome.Difficulty)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create outcome: %w", err)
	}
	return id, nil
}

func (r *OutcomeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Outcome, error) {
	var (
		o   domain.Outcome
		win int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, game, win, bet, earned, xp_earned, board, difficulty, created_at
		FROM outcomes
		WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Game, &win, &o.Bet, &o.Earned, &o.XPEarned, &o.Board, &o.Difficulty, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("outcome %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read outcome: %w", err)
	}
	o.Win = win == 1
	return &o, nil
}
