package domain

import (
	"context"
	"time"
)

// Account is a user's economy row: the spendable balance plus the attributes
// the bonus and max-wager calculations read.
type Account struct {
	UserID       string
	Money        int64
	Prestige     int
	Tier         int
	GuildLevel   int
	XP           int64
	DefaultBet   int64
	Voted        bool
	Booster      bool
	Passive      bool
	VoteReminder bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountRepository is the durable balance-of-record store. Mutations are
// atomic at the row level.
type AccountRepository interface {
	Ensure(ctx context.Context, userID string) (*Account, error)
	Get(ctx context.Context, userID string) (*Account, error)
	GetMoney(ctx context.Context, userID string) (int64, error)
	SetMoney(ctx context.Context, userID string, amount int64) error
	AddXP(ctx context.Context, userID string, delta int64) error
}

// BoosterKind discriminates what a time-limited booster affects.
type BoosterKind string

const (
	BoosterMulti  BoosterKind = "multi"
	BoosterMaxBet BoosterKind = "maxbet"
)

// Booster is an active time-limited effect on a user's account.
type Booster struct {
	UserID    string
	Item      string
	Kind      BoosterKind
	Effect    float64
	ExpiresAt time.Time
}

// BoosterRepository lists a user's unexpired boosters.
type BoosterRepository interface {
	Active(ctx context.Context, userID string) ([]Booster, error)
}

// InventoryRepository tracks owned items. Remove never drops a count below
// zero.
type InventoryRepository interface {
	Count(ctx context.Context, userID, item string) (int64, error)
	Add(ctx context.Context, userID, item string, amount int64) error
	Remove(ctx context.Context, userID, item string, amount int64) error
}
