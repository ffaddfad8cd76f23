package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerworks/towerd/internal/domain"
)

// accountColumns must match the Scan order in scanAccount.
const accountColumns = `user_id, money, prestige, tier, guild_level, xp, default_bet, voted, booster, passive, vote_reminder, created_at, updated_at`

// AccountRepo implements domain.AccountRepository backed by PostgreSQL.
type AccountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo creates an AccountRepo on the shared pool.
func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.UserID, &a.Money, &a.Prestige, &a.Tier, &a.GuildLevel,
		&a.XP, &a.DefaultBet, &a.Voted, &a.Booster, &a.Passive,
		&a.VoteReminder, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

// Ensure creates the account row with defaults if it does not exist and
// returns it.
func (r *AccountRepo) Ensure(ctx context.Context, userID string) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING `+accountColumns+`
	`, userID))
}

func (r *AccountRepo) Get(ctx context.Context, userID string) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID))
}

func (r *AccountRepo) GetMoney(ctx context.Context, userID string) (int64, error) {
	var money int64
	err := r.pool.QueryRow(ctx,
		`SELECT money FROM accounts WHERE user_id = $1`, userID).Scan(&money)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return money, nil
}

func (r *AccountRepo) SetMoney(ctx context.Context, userID string, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET money = $1, updated_at = NOW()
		WHERE user_id = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) AddXP(ctx context.Context, userID string, delta int64) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET xp = xp + $1, updated_at = NOW()
		WHERE user_id = $2
	`, delta, userID); err != nil {
		return fmt.Errorf("failed to update xp: %w", err)
	}
	return nil
}
