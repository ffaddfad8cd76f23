package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	leaderKey = "sweep:leader"
	leaderTTL = 30 * time.Second
)

// LeaderElector elects a single sweep leader fleet-wide via SETNX with TTL.
// A crashed leader loses the key after leaderTTL and another instance takes
// over.
type LeaderElector struct {
	rdb        *goredis.Client
	instanceID string
}

// NewLeaderElector creates the elector. instanceID must be unique per
// instance, e.g. hostname plus PID.
func NewLeaderElector(rdb *goredis.Client, instanceID string) *LeaderElector {
	return &LeaderElector{rdb: rdb, instanceID: instanceID}
}

// TryAcquire attempts to become leader. It reports false when another
// instance already holds the key.
func (l *LeaderElector) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leaderKey, l.instanceID, leaderTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	return ok, nil
}

// Renew extends the leadership TTL. It fails when this instance is no longer
// the leader, which callers must treat as a demotion.
func (l *LeaderElector) Renew(ctx context.Context) error {
	current, err := l.rdb.Get(ctx, leaderKey).Result()
	if err == goredis.Nil {
		return fmt.Errorf("leader lock lost")
	}
	if err != nil {
		return fmt.Errorf("failed to check leader: %w", err)
	}
	if current != l.instanceID {
		return fmt.Errorf("leader lock held by %s", current)
	}

	ok, err := l.rdb.Expire(ctx, leaderKey, leaderTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to renew leader lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("leader lock lost during renewal")
	}
	return nil
}

// Release gives up leadership voluntarily, only when still held by this
// instance.
func (l *LeaderElector) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.rdb.Eval(ctx, script, []string{leaderKey}, l.instanceID).Result()
	return err
}
