// Package ledger is the money layer: cached balance reads, escrow debits and
// settlement credits against the durable accounts table, and the bonus and
// max-wager calculations derived from a user's account state.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/wagerworks/towerd/internal/domain"
	"github.com/wagerworks/towerd/internal/game"
	"github.com/wagerworks/towerd/internal/metrics"
)

// prestigeBonus maps prestige level to its flat bonus contribution; levels
// beyond the table get the last entry.
var prestigeBonus = []int{0, 1, 2, 3, 4, 5, 6, 7, 7, 9, 10}

// Items that influence the wager bonus roll.
const (
	itemCrystalHeart = "crystal_heart"
	itemWhiteGem     = "white_gem"
	itemPinkGem      = "pink_gem"
)

// gem break odds per bonus roll
const (
	whiteGemBreakChance = 0.01
	pinkGemBreakChance  = 0.07
)

var (
	whiteGemChoices = []int{7, 3, 4, 5, 7, 2, 17, 7, 4, 5, 3, 3, 3, 3, 4, 3, 3, 3, 3, 3, 3, 1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3}
	pinkGemChoices  = []int{7, 5, 4, 3, 2, 1, 3, 1, 1, 1, 3, 3}
)

// Max-wager constants.
const (
	maxWagerBase          = 100_000
	maxWagerVoteBonus     = 50_000
	maxWagerPrestigeBonus = 50_000
	maxWagerCap           = 1_000_000
	maxWagerBoosterBonus  = 250_000
)

// Cache is the volatile read-through layer in front of the accounts table.
type Cache interface {
	GetBalance(ctx context.Context, userID string) (int64, bool, error)
	SetBalance(ctx context.Context, userID string, amount int64) error
	InvalidateBalance(ctx context.Context, userID string) error
	GetDefaultBet(ctx context.Context, userID string) (int64, bool, error)
	SetDefaultBet(ctx context.Context, userID string, amount int64) error
}

// Service implements the ledger operations on top of the account, inventory
// and booster repositories plus the Redis cache.
type Service struct {
	accounts  domain.AccountRepository
	inventory domain.InventoryRepository
	boosters  domain.BoosterRepository
	cache     Cache
	notifier  domain.NotificationService
	rng       game.Rand
	group     singleflight.Group
	logger    *slog.Logger
}

// NewService wires the ledger. notifier may be nil when gem-break
// notifications are not wanted.
func NewService(
	accounts domain.AccountRepository,
	inventory domain.InventoryRepository,
	boosters domain.BoosterRepository,
	cache Cache,
	notifier domain.NotificationService,
	rng game.Rand,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:  accounts,
		inventory: inventory,
		boosters:  boosters,
		cache:     cache,
		notifier:  notifier,
		rng:       rng,
		logger:    logger,
	}
}

// Ensure creates the account row on first contact and returns it.
func (s *Service) Ensure(ctx context.Context, userID string) (*domain.Account, error) {
	return s.accounts.Ensure(ctx, userID)
}

// Balance returns the user's spendable balance, served from the cache when
// fresh. Concurrent misses for the same user collapse into one durable read.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	cached, ok, err := s.cache.GetBalance(ctx, userID)
	if err != nil {
		s.logger.Warn("Balance cache read failed, falling back to durable store", "error", err)
	} else if ok {
		metrics.BalanceCacheHits.Inc()
		return cached, nil
	}

	metrics.BalanceCacheMisses.Inc()
	v, err, _ := s.group.Do("balance:"+userID, func() (any, error) {
		money, err := s.accounts.GetMoney(ctx, userID)
		if err != nil {
			return int64(0), err
		}
		if err := s.cache.SetBalance(ctx, userID, money); err != nil {
			s.logger.Warn("Failed to populate balance cache", "error", err)
		}
		return money, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// SetBalance writes the balance durably and drops the cached copy.
func (s *Service) SetBalance(ctx context.Context, userID string, amount int64) error {
	if err := s.accounts.SetMoney(ctx, userID, amount); err != nil {
		return err
	}
	if err := s.cache.InvalidateBalance(ctx, userID); err != nil {
		return fmt.Errorf("balance updated but cache invalidation failed: %w", err)
	}
	return nil
}

// Debit removes amount from the balance, failing with
// domain.ErrInsufficientFunds when the balance does not cover it.
func (s *Service) Debit(ctx context.Context, userID string, amount int64) error {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return domain.ErrInsufficientFunds
	}
	return s.SetBalance(ctx, userID, balance-amount)
}

// Credit adds amount to the balance.
func (s *Service) Credit(ctx context.Context, userID string, amount int64) error {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return s.SetBalance(ctx, userID, balance+amount)
}

// AddXP increments the user's experience.
func (s *Service) AddXP(ctx context.Context, userID string, delta int64) error {
	return s.accounts.AddXP(ctx, userID, delta)
}

// WagerBonus computes the user's payout bonus as a fraction, e.g. 0.12 for a
// 12% bonus. The roll consumes randomness for the gem items and can break a
// gem as a side effect; side-effect failures are logged, never returned.
func (s *Service) WagerBonus(ctx context.Context, userID string) (float64, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	bonus := 0

	p := account.Prestige
	if p < 0 {
		p = 0
	}
	if p >= len(prestigeBonus) {
		p = len(prestigeBonus) - 1
	}
	bonus += prestigeBonus[p]

	switch account.Tier {
	case 2:
		bonus += 2
	case 3:
		bonus += 4
	case 4:
		bonus += 7
	}

	if account.Booster {
		bonus += 3
	}

	if account.GuildLevel > 0 {
		if account.GuildLevel > 7 {
			bonus += 7
		} else {
			bonus += account.GuildLevel - 1
		}
	}

	if account.VoteReminder {
		bonus += 2
	}

	if account.Passive {
		bonus -= 3
	}

	boosters, err := s.boosters.Active(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, b := range boosters {
		if b.Kind == domain.BoosterMulti {
			bonus += int(b.Effect)
		}
	}

	hearts, err := s.inventory.Count(ctx, userID, itemCrystalHeart)
	if err != nil {
		return 0, err
	}
	if hearts > 0 {
		bonus += s.rng.IntN(7)
	}

	whiteGems, err := s.inventory.Count(ctx, userID, itemWhiteGem)
	if err != nil {
		return 0, err
	}
	if whiteGems > 0 {
		if s.rng.IntN(10) < 2 {
			bonus -= s.rng.IntN(6) + 1
		} else {
			s.gemBreak(ctx, userID, whiteGemBreakChance, itemWhiteGem)
			bonus += s.rng.IntN(whiteGemChoices[s.rng.IntN(len(whiteGemChoices))]) + 1
		}
	} else {
		pinkGems, err := s.inventory.Count(ctx, userID, itemPinkGem)
		if err != nil {
			return 0, err
		}
		if pinkGems > 0 {
			if s.rng.IntN(10) < 2 {
				bonus -= 3
			} else {
				s.gemBreak(ctx, userID, pinkGemBreakChance, itemPinkGem)
				bonus += pinkGemChoices[s.rng.IntN(len(pinkGemChoices))]
			}
		}
	}

	if bonus < 0 {
		bonus = 0
	}
	return float64(bonus) / 100, nil
}

// gemBreak shatters the gem with the given probability. The break removes
// one from the inventory and notifies the user.
func (s *Service) gemBreak(ctx context.Context, userID string, chance float64, item string) {
	if s.rng.Float64() >= chance {
		return
	}
	if err := s.inventory.Remove(ctx, userID, item, 1); err != nil {
		s.logger.Error("Failed to remove shattered gem", "user_id", userID, "item", item, "error", err)
		return
	}
	s.logger.Info("Gem shattered during bonus roll", "user_id", userID, "item", item)
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, userID, fmt.Sprintf("your %s shattered", item)); err != nil {
			s.logger.Warn("Failed to deliver gem break notification", "user_id", userID, "error", err)
		}
	}
}

// MaxWager returns the largest bet the user may place. The cap applies to
// the base-plus-prestige amount; the booster bonus and maxbet item boosters
// stack on top of the capped value.
func (s *Service) MaxWager(ctx context.Context, userID string) (int64, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := int64(maxWagerBase)
	if account.Voted {
		total += maxWagerVoteBonus
	}
	total += int64(account.Prestige) * maxWagerPrestigeBonus
	if total > maxWagerCap {
		total = maxWagerCap
	}
	if account.Booster {
		total += maxWagerBoosterBonus
	}

	boosters, err := s.boosters.Active(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, b := range boosters {
		if b.Kind == domain.BoosterMaxBet {
			total += int64(math.Floor(float64(total) * b.Effect))
		}
	}

	return total, nil
}

// DefaultBet returns the user's stored default bet, cached for an hour.
func (s *Service) DefaultBet(ctx context.Context, userID string) (int64, error) {
	cached, ok, err := s.cache.GetDefaultBet(ctx, userID)
	if err != nil {
		s.logger.Warn("Default-bet cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetDefaultBet(ctx, userID, account.DefaultBet); err != nil {
		s.logger.Warn("Failed to populate default-bet cache", "error", err)
	}
	return account.DefaultBet, nil
}

// RequiredWagerForXP is the minimum bet below which a round earns no
// experience.
func RequiredWagerForXP(prestige int) int64 {
	required := int64(1000)
	if prestige > 2 {
		required = 10_000
	}
	return required + int64(prestige)*1000
}

// EarnedXP computes the experience for a winning round. Bets under the
// prestige-scaled floor earn nothing; above it the reward grows with the
// settled multiplier.
func EarnedXP(bet int64, multiplier float64, prestige int) int64 {
	if bet < RequiredWagerForXP(prestige) {
		return 0
	}
	xp := int64(math.Floor(multiplier)) + 1
	if xp > 6 {
		xp = 6
	}
	return xp
}
