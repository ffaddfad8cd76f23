package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is the immutable settlement record of one session. Earned is the
// total credited back to the ledger (zero for a loss).
type Outcome struct {
	ID         uuid.UUID
	UserID     string
	Game       string
	Win        bool
	Bet        int64
	Earned     int64
	XPEarned   int64
	Board      string
	Difficulty Difficulty
	CreatedAt  time.Time
}

// OutcomeFailedSentinel is stored as the board payload of a sentinel outcome
// written after persistence retries are exhausted, so the round can be
// reconciled later.
const OutcomeFailedSentinel = "persistence-failed"

// OutcomeRepository is the append-only settlement record store.
type OutcomeRepository interface {
	Create(ctx context.Context, outcome *Outcome) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Outcome, error)
}

// PendingRound is the durable escrow marker written before play starts and
// removed at settlement. The sweep refunds rounds whose owning process died.
type PendingRound struct {
	UserID    string
	Token     uuid.UUID
	Bet       int64
	StartedAt time.Time
}

// RoundRepository persists pending rounds. Reclaim atomically refunds the
// bet and deletes the row; it reports false when the row was already gone,
// so two sweepers can never refund twice.
type RoundRepository interface {
	Create(ctx context.Context, round PendingRound) error
	Delete(ctx context.Context, token uuid.UUID) error
	ListStale(ctx context.Context, olderThan time.Time) ([]PendingRound, error)
	Reclaim(ctx context.Context, token uuid.UUID) (bool, error)
}
