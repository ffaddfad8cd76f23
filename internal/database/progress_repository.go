package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepo implements domain.ProgressService on the achievement_progress
// table. Progress is additive; unlocking thresholds live elsewhere.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func (r *ProgressRepo) AddProgress(ctx context.Context, userID, achievement string, amount int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO achievement_progress (user_id, achievement, progress)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement)
		DO UPDATE SET progress = achievement_progress.progress + EXCLUDED.progress`,
		userID, achievement, amount)
	if err != nil {
		return fmt.Errorf("failed to record achievement progress: %w", err)
	}
	return nil
}
