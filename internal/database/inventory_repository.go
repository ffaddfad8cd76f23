package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerworks/towerd/internal/domain"
)

// InventoryRepo implements domain.InventoryRepository backed by PostgreSQL.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

// NewInventoryRepo creates an InventoryRepo on the shared pool.
func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{pool: pool}
}

func (r *InventoryRepo) Count(ctx context.Context, userID, item string) (int64, error) {
	var amount int64
	err := r.pool.QueryRow(ctx,
		`SELECT amount FROM inventory WHERE user_id = $1 AND item = $2`, userID, item).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read inventory: %w", err)
	}
	return amount, nil
}

func (r *InventoryRepo) Add(ctx context.Context, userID, item string, amount int64) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO inventory (user_id, item, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item) DO UPDATE SET amount = inventory.amount + EXCLUDED.amount
	`, userID, item, amount); err != nil {
		return fmt.Errorf("failed to add inventory item: %w", err)
	}
	return nil
}

// Remove decrements an item count, clamping at zero and deleting empty rows.
func (r *InventoryRepo) Remove(ctx context.Context, userID, item string, amount int64) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE inventory
		SET amount = GREATEST(amount - $3, 0)
		WHERE user_id = $1 AND item = $2
	`, userID, item, amount); err != nil {
		return fmt.Errorf("failed to remove inventory item: %w", err)
	}
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM inventory WHERE user_id = $1 AND item = $2 AND amount = 0`, userID, item); err != nil {
		return fmt.Errorf("failed to prune empty inventory row: %w", err)
	}
	return nil
}

// BoosterRepo implements domain.BoosterRepository backed by PostgreSQL.
type BoosterRepo struct {
	pool *pgxpool.Pool
}

// NewBoosterRepo creates a BoosterRepo on the shared pool.
func NewBoosterRepo(pool *pgxpool.Pool) *BoosterRepo {
	return &BoosterRepo{pool: pool}
}

// Active lists the user's unexpired boosters.
func (r *BoosterRepo) Active(ctx context.Context, userID string) ([]domain.Booster, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, item, kind, effect, expires_at
		FROM boosters
		WHERE user_id = $1 AND expires_at > NOW()
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boosters: %w", err)
	}
	defer rows.Close()

	var boosters []domain.Booster
	for rows.Next() {
		var b domain.Booster
		if err := rows.Scan(&b.UserID, &b.Item, &b.Kind, &b.Effect, &b.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan booster: %w", err)
		}
		boosters = append(boosters, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boosters: %w", err)
	}
	return boosters, nil
}
