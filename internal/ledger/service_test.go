package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagerworks/towerd/internal/domain"
)

type accountsMock struct {
	ensure   func(ctx context.Context, userID string) (*domain.Account, error)
	get      func(ctx context.Context, userID string) (*domain.Account, error)
	getMoney func(ctx context.Context, userID string) (int64, error)
	setMoney func(ctx context.Context, userID string, amount int64) error
	addXP    func(ctx context.Context, userID string, delta int64) error
}

func (m *accountsMock) Ensure(ctx context.Context, userID string) (*domain.Account, error) {
	return m.ensure(ctx, userID)
}

func (m *accountsMock) Get(ctx context.Context, userID string) (*domain.Account, error) {
	return m.get(ctx, userID)
}

func (m *accountsMock) GetMoney(ctx context.Context, userID string) (int64, error) {
	return m.getMoney(ctx, userID)
}

func (m *accountsMock) SetMoney(ctx context.Context, userID string, amount int64) error {
	return m.setMoney(ctx, userID, amount)
}

func (m *accountsMock) AddXP(ctx context.Context, userID string, delta int64) error {
	return m.addXP(ctx, userID, delta)
}

type inventoryMock struct {
	counts  map[string]int64
	removed []string
}

func (m *inventoryMock) Count(_ context.Context, _, item string) (int64, error) {
	return m.counts[item], nil
}

func (m *inventoryMock) Add(_ context.Context, _, item string, amount int64) error {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[item] += amount
	return nil
}

func (m *inventoryMock) Remove(_ context.Context, _, item string, _ int64) error {
	m.removed = append(m.removed, item)
	return nil
}

type boostersMock struct {
	active []domain.Booster
	err    error
}

func (m *boostersMock) Active(context.Context, string) ([]domain.Booster, error) {
	return m.active, m.err
}

type cacheMock struct {
	balances    map[string]int64
	defaultBets map[string]int64
	invalidated []string
}

func newCacheMock() *cacheMock {
	return &cacheMock{balances: map[string]int64{}, defaultBets: map[string]int64{}}
}

func (m *cacheMock) GetBalance(_ context.Context, userID string) (int64, bool, error) {
	v, ok := m.balances[userID]
	return v, ok, nil
}

func (m *cacheMock) SetBalance(_ context.Context, userID string, amount int64) error {
	m.balances[userID] = amount
	return nil
}

func (m *cacheMock) InvalidateBalance(_ context.Context, userID string) error {
	delete(m.balances, userID)
	m.invalidated = append(m.invalidated, userID)
	return nil
}

func (m *cacheMock) GetDefaultBet(_ context.Context, userID string) (int64, bool, error) {
	v, ok := m.defaultBets[userID]
	return v, ok, nil
}

func (m *cacheMock) SetDefaultBet(_ context.Context, userID string, amount int64) error {
	m.defaultBets[userID] = amount
	return nil
}

type fixedRand struct {
	ints   []int
	floats []float64
	i, f   int
}

func (r *fixedRand) IntN(int) int {
	if r.i >= len(r.ints) {
		return 0
	}
	v := r.ints[r.i]
	r.i++
	return v
}

func (r *fixedRand) Float64() float64 {
	if r.f >= len(r.floats) {
		return 1
	}
	v := r.floats[r.f]
	r.f++
	return v
}

func newTestService(accounts *accountsMock, inventory *inventoryMock, boosters *boostersMock, cache *cacheMock, rng *fixedRand) *Service {
	if inventory == nil {
		inventory = &inventoryMock{}
	}
	if boosters == nil {
		boosters = &boostersMock{}
	}
	if cache == nil {
		cache = newCacheMock()
	}
	if rng == nil {
		rng = &fixedRand{}
	}
	return NewService(accounts, inventory, boosters, cache, nil, rng, slog.Default())
}

func TestBalanceServedFromCache(t *testing.T) {
	cache := newCacheMock()
	cache.balances["alice"] = 750

	accounts := &accountsMock{
		getMoney: func(context.Context, string) (int64, error) {
			t.Fatal("durable store must not be hit on a cache hit")
			return 0, nil
		},
	}

	svc := newTestService(accounts, nil, nil, cache, nil)
	balance, err := svc.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)
}

func TestBalanceMissPopulatesCache(t *testing.T) {
	cache := newCacheMock()
	reads := 0
	accounts := &accountsMock{
		getMoney: func(context.Context, string) (int64, error) {
			reads++
			return 1234, nil
		},
	}

	svc := newTestService(accounts, nil, nil, cache, nil)

	balance, err := svc.Balance(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), balance)
	assert.Equal(t, 1, reads)
	assert.Equal(t, int64(1234), cache.balances["bob"])
}

func TestDebitInsufficientFunds(t *testing.T) {
	cache := newCacheMock()
	cache.balances["carol"] = 100

	svc := newTestService(&accountsMock{}, nil, nil, cache, nil)
	err := svc.Debit(context.Background(), "carol", 500)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestDebitWritesAndInvalidates(t *testing.T) {
	cache := newCacheMock()
	cache.balances["dave"] = 1000

	var written int64 = -1
	accounts := &accountsMock{
		setMoney: func(_ context.Context, _ string, amount int64) error {
			written = amount
			return nil
		},
	}

	svc := newTestService(accounts, nil, nil, cache, nil)
	require.NoError(t, svc.Debit(context.Background(), "dave", 400))
	assert.Equal(t, int64(600), written)
	assert.Contains(t, cache.invalidated, "dave")
}

func TestSetBalanceSurfacesInvalidationFailure(t *testing.T) {
	accounts := &accountsMock{
		setMoney: func(context.Context, string, int64) error { return nil },
	}
	cache := &failingCache{cacheMock: newCacheMock()}

	svc := newTestService(accounts, nil, nil, nil, nil)
	svc.cache = cache
	err := svc.SetBalance(context.Background(), "erin", 10)
	assert.Error(t, err)
}

type failingCache struct {
	*cacheMock
}

func (f *failingCache) InvalidateBalance(context.Context, string) error {
	return errors.New("redis down")
}

func TestWagerBonusCombinesAccountSources(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{
				UserID:       "frank",
				Prestige:     3, // +3
				Tier:         3, // +4
				Booster:      true,
				GuildLevel:   5, // +4
				VoteReminder: true,
			}, nil
		},
	}

	svc := newTestService(accounts, nil, nil, nil, nil)
	bonus, err := svc.WagerBonus(context.Background(), "frank")
	require.NoError(t, err)
	// 3 + 4 + 3 + 4 + 2 = 16
	assert.InDelta(t, 0.16, bonus, 1e-9)
}

func TestWagerBonusPrestigeBeyondTableUsesLastEntry(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "grace", Prestige: 50}, nil
		},
	}

	svc := newTestService(accounts, nil, nil, nil, nil)
	bonus, err := svc.WagerBonus(context.Background(), "grace")
	require.NoError(t, err)
	assert.InDelta(t, 0.10, bonus, 1e-9)
}

func TestWagerBonusNeverNegative(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "heidi", Passive: true}, nil
		},
	}

	svc := newTestService(accounts, nil, nil, nil, nil)
	bonus, err := svc.WagerBonus(context.Background(), "heidi")
	require.NoError(t, err)
	assert.Zero(t, bonus)
}

func TestWagerBonusMultiBoostersStack(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "ivan"}, nil
		},
	}
	boosters := &boostersMock{active: []domain.Booster{
		{Kind: domain.BoosterMulti, Effect: 5},
		{Kind: domain.BoosterMaxBet, Effect: 0.5}, // ignored here
	}}

	svc := newTestService(accounts, nil, boosters, nil, nil)
	bonus, err := svc.WagerBonus(context.Background(), "ivan")
	require.NoError(t, err)
	assert.InDelta(t, 0.05, bonus, 1e-9)
}

func TestWagerBonusWhiteGemUnluckyRoll(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "judy", Prestige: 5}, nil
		},
	}
	inventory := &inventoryMock{counts: map[string]int64{itemWhiteGem: 1}}
	// chance roll 1 (< 2), then penalty roll 3 -> -4
	rng := &fixedRand{ints: []int{1, 3}}

	svc := newTestService(accounts, inventory, nil, nil, rng)
	bonus, err := svc.WagerBonus(context.Background(), "judy")
	require.NoError(t, err)
	// prestige 5 gives +5, penalty -4 leaves 1
	assert.InDelta(t, 0.01, bonus, 1e-9)
	assert.Empty(t, inventory.removed)
}

func TestWagerBonusGemBreakRemovesGem(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "kate"}, nil
		},
	}
	inventory := &inventoryMock{counts: map[string]int64{itemPinkGem: 1}}
	// white gem count roll unused (no white gem), pink chance roll 9 takes the
	// lucky branch, Float64 0 forces the break, choice index 0 pays +7
	rng := &fixedRand{ints: []int{9, 0}, floats: []float64{0}}

	svc := newTestService(accounts, inventory, nil, nil, rng)
	bonus, err := svc.WagerBonus(context.Background(), "kate")
	require.NoError(t, err)
	assert.InDelta(t, 0.07, bonus, 1e-9)
	assert.Equal(t, []string{itemPinkGem}, inventory.removed)
}

func TestMaxWagerCapAppliesBeforeBoosterBonus(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "liam", Prestige: 40, Voted: true, Booster: true}, nil
		},
	}

	svc := newTestService(accounts, nil, nil, nil, nil)
	max, err := svc.MaxWager(context.Background(), "liam")
	require.NoError(t, err)
	assert.Equal(t, int64(1_250_000), max)
}

func TestMaxWagerItemBoostersMultiply(t *testing.T) {
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{UserID: "mia"}, nil
		},
	}
	boosters := &boostersMock{active: []domain.Booster{
		{Kind: domain.BoosterMaxBet, Effect: 0.5},
	}}

	svc := newTestService(accounts, nil, boosters, nil, nil)
	max, err := svc.MaxWager(context.Background(), "mia")
	require.NoError(t, err)
	assert.Equal(t, int64(150_000), max)
}

func TestDefaultBetCachedAfterFirstRead(t *testing.T) {
	cache := newCacheMock()
	reads := 0
	accounts := &accountsMock{
		get: func(context.Context, string) (*domain.Account, error) {
			reads++
			return &domain.Account{UserID: "nina", DefaultBet: 5000}, nil
		},
	}

	svc := newTestService(accounts, nil, nil, cache, nil)

	first, err := svc.DefaultBet(context.Background(), "nina")
	require.NoError(t, err)
	second, err := svc.DefaultBet(context.Background(), "nina")
	require.NoError(t, err)

	assert.Equal(t, int64(5000), first)
	assert.Equal(t, int64(5000), second)
	assert.Equal(t, 1, reads)
}

func TestEarnedXP(t *testing.T) {
	assert.Zero(t, EarnedXP(500, 3.0, 0), "bet below the floor earns nothing")
	assert.Equal(t, int64(2), EarnedXP(1000, 1.4, 0))
	assert.Equal(t, int64(6), EarnedXP(50_000, 12.0, 0), "capped at six")
	assert.Zero(t, EarnedXP(5000, 2.0, 3), "prestige raises the floor")
	assert.Equal(t, int64(3), EarnedXP(13_000, 2.5, 3))
}
