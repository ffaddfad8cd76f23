package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	dropGateKey    = "drops:green_gem"
	dropGateWindow = 24 * time.Hour
)

// DropGate limits the fleet-wide gem drop to one per window using SETNX
// with an expiry. At most one TryClaim succeeds per window across all
// processes.
type DropGate struct {
	rdb *goredis.Client
}

// NewDropGate creates the gate on the shared Redis client.
func NewDropGate(rdb *goredis.Client) *DropGate {
	return &DropGate{rdb: rdb}
}

// TryClaim attempts to claim the drop window. Returns true for the single
// winner.
func (g *DropGate) TryClaim(ctx context.Context) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, dropGateKey, "t", dropGateWindow).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim drop gate: %w", err)
	}
	return ok, nil
}
