package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/wagerworks/towerd/internal/domain"
)

const maintenanceKey = "gates:maintenance"

// Gatekeeper implements domain.Gatekeeper on Redis: a global maintenance
// flag and per-user lockout markers, both settable by operators out of band.
type Gatekeeper struct {
	rdb *goredis.Client
}

// NewGatekeeper creates the gate checker on the shared Redis client.
func NewGatekeeper(rdb *goredis.Client) *Gatekeeper {
	return &Gatekeeper{rdb: rdb}
}

// CheckEligibility returns domain.ErrEligibilityDenied when maintenance mode
// is on or the user is locked out.
func (g *Gatekeeper) CheckEligibility(ctx context.Context, userID string) error {
	if err := g.check(ctx, maintenanceKey, "maintenance mode"); err != nil {
		return err
	}
	return g.check(ctx, lockoutKey(userID), "user locked out")
}

func (g *Gatekeeper) check(ctx context.Context, key, reason string) error {
	_, err := g.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read gate %s: %w", key, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrEligibilityDenied, reason)
}

func lockoutKey(userID string) string {
	return "gates:lockout:" + userID
}
