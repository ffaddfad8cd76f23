package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only when the caller still holds it, so a
// slow process cannot release a successor's lease.
const releaseScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// renewScript extends the TTL only for the current holder.
const renewScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// SessionLease implements domain.SessionLease on Redis. The key carries its
// own TTL so a crashed process can never strand a user's lease; the sweep
// reconciles the escrowed funds separately.
type SessionLease struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewSessionLease creates the lease store with the given TTL.
func NewSessionLease(rdb *goredis.Client, ttl time.Duration) *SessionLease {
	return &SessionLease{rdb: rdb, ttl: ttl}
}

// Acquire claims the user's lease for the session token. Returns false when
// another session already holds it.
func (l *SessionLease) Acquire(ctx context.Context, userID string, token uuid.UUID) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, leaseKey(userID), token.String(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lease: %w", err)
	}
	return ok, nil
}

// Renew extends the lease TTL for the holder of token. A mismatch means the
// lease expired or was replaced; the caller should settle rather than play on.
func (l *SessionLease) Renew(ctx context.Context, userID string, token uuid.UUID) error {
	n, err := l.rdb.Eval(ctx, renewScript, []string{leaseKey(userID)}, token.String(), l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to renew session lease: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session lease for %s no longer held by %s", userID, token)
	}
	return nil
}

// Release removes the lease if token still holds it. Releasing an already
// expired lease is not an error.
func (l *SessionLease) Release(ctx context.Context, userID string, token uuid.UUID) error {
	if err := l.rdb.Eval(ctx, releaseScript, []string{leaseKey(userID)}, token.String()).Err(); err != nil {
		return fmt.Errorf("failed to release session lease: %w", err)
	}
	return nil
}

// Holder reports the token currently holding the user's lease.
func (l *SessionLease) Holder(ctx context.Context, userID string) (uuid.UUID, bool, error) {
	val, err := l.rdb.Get(ctx, leaseKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read session lease: %w", err)
	}

	token, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("malformed session lease for %s: %w", userID, err)
	}
	return token, true, nil
}

func leaseKey(userID string) string {
	return "playing:" + userID
}
