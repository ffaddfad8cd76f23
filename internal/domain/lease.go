package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionLease is the fleet-wide marker that a user has an active session.
// The lease carries its own TTL in the shared store so a crashed process
// cannot strand it forever; each user action renews it. Only the holder of
// the matching token may renew or release.
type SessionLease interface {
	Acquire(ctx context.Context, userID string, token uuid.UUID) (bool, error)
	Renew(ctx context.Context, userID string, token uuid.UUID) error
	Release(ctx context.Context, userID string, token uuid.UUID) error
	Holder(ctx context.Context, userID string) (uuid.UUID, bool, error)
}

// DropGate rate-limits the fleet-wide one-time gem drop: TryClaim succeeds
// for at most one caller per window.
type DropGate interface {
	TryClaim(ctx context.Context) (bool, error)
}

// Gatekeeper applies the maintenance and per-user lockout gates checked
// before a session may start.
type Gatekeeper interface {
	CheckEligibility(ctx context.Context, userID string) error
}
