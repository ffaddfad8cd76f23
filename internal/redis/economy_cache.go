package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	balanceCacheTTL    = 30 * time.Second
	defaultBetCacheTTL = time.Hour
)

// EconomyCache is the short-lived cache in front of the accounts table.
// Writers invalidate, never write through, so the cache can only ever lag
// the durable store by one TTL and never diverge from it.
type EconomyCache struct {
	rdb goredis.Cmdable
}

// NewEconomyCache creates the cache on the shared Redis client.
func NewEconomyCache(rdb goredis.Cmdable) *EconomyCache {
	return &EconomyCache{rdb: rdb}
}

// GetBalance returns the cached balance and whether it was present.
func (c *EconomyCache) GetBalance(ctx context.Context, userID string) (int64, bool, error) {
	return c.getInt(ctx, balanceKey(userID))
}

// SetBalance populates the balance cache with the freshly read value.
func (c *EconomyCache) SetBalance(ctx context.Context, userID string, amount int64) error {
	if err := c.rdb.Set(ctx, balanceKey(userID), strconv.FormatInt(amount, 10), balanceCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to populate balance cache: %w", err)
	}
	return nil
}

// InvalidateBalance drops the cached balance after a durable write.
func (c *EconomyCache) InvalidateBalance(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate balance cache: %w", err)
	}
	return nil
}

// GetDefaultBet returns the cached default bet and whether it was present.
func (c *EconomyCache) GetDefaultBet(ctx context.Context, userID string) (int64, bool, error) {
	return c.getInt(ctx, defaultBetKey(userID))
}

// SetDefaultBet populates the default-bet cache.
func (c *EconomyCache) SetDefaultBet(ctx context.Context, userID string, amount int64) error {
	if err := c.rdb.Set(ctx, defaultBetKey(userID), strconv.FormatInt(amount, 10), defaultBetCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to populate default-bet cache: %w", err)
	}
	return nil
}

func (c *EconomyCache) getInt(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache read failed: %w", err)
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed cache entry %s: %w", key, err)
	}
	return n, true, nil
}

func balanceKey(userID string) string {
	return "cache:balance:" + userID
}

func defaultBetKey(userID string) string {
	return "cache:default_bet:" + userID
}
