package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wagerworks/towerd/internal/domain"
)

// ledgerMock is an in-memory Ledger with recorded mutations.
type ledgerMock struct {
	mu         sync.Mutex
	balances   map[string]int64
	accounts   map[string]*domain.Account
	maxWager   int64
	bonus      float64
	defaultBet int64
	xpAdded    map[string]int64
	debits     []int64
	credits    []int64
}

func newLedgerMock() *ledgerMock {
	return &ledgerMock{
		balances: map[string]int64{},
		accounts: map[string]*domain.Account{},
		maxWager: 1_000_000,
		xpAdded:  map[string]int64{},
	}
}

func (m *ledgerMock) Ensure(_ context.Context, userID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[userID]; ok {
		return a, nil
	}
	a := &domain.Account{UserID: userID, Money: m.balances[userID]}
	m.accounts[userID] = a
	return a, nil
}

func (m *ledgerMock) Balance(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *ledgerMock) Debit(_ context.Context, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[userID] < amount {
		return domain.ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	m.debits = append(m.debits, amount)
	return nil
}

func (m *ledgerMock) Credit(_ context.Context, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += amount
	m.credits = append(m.credits, amount)
	return nil
}

func (m *ledgerMock) AddXP(_ context.Context, userID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.xpAdded[userID] += delta
	return nil
}

func (m *ledgerMock) WagerBonus(context.Context, string) (float64, error) {
	return m.bonus, nil
}

func (m *ledgerMock) MaxWager(context.Context, string) (int64, error) {
	return m.maxWager, nil
}

func (m *ledgerMock) DefaultBet(context.Context, string) (int64, error) {
	return m.defaultBet, nil
}

func (m *ledgerMock) balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

// leaseMock is an in-memory SessionLease keyed by user.
type leaseMock struct {
	mu      sync.Mutex
	holders map[string]uuid.UUID
}

func newLeaseMock() *leaseMock {
	return &leaseMock{holders: map[string]uuid.UUID{}}
}

func (m *leaseMock) Acquire(_ context.Context, userID string, token uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.holders[userID]; held {
		return false, nil
	}
	m.holders[userID] = token
	return true, nil
}

func (m *leaseMock) Renew(_ context.Context, userID string, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holders[userID] != token {
		return errors.New("not the lease holder")
	}
	return nil
}

func (m *leaseMock) Release(_ context.Context, userID string, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holders[userID] == token {
		delete(m.holders, userID)
	}
	return nil
}

func (m *leaseMock) Holder(_ context.Context, userID string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, held := m.holders[userID]
	return token, held, nil
}

func (m *leaseMock) held(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.holders[userID]
	return held
}

// roundsMock is an in-memory RoundRepository.
type roundsMock struct {
	mu      sync.Mutex
	rounds  map[uuid.UUID]domain.PendingRound
	refunds []domain.PendingRound
}

func newRoundsMock() *roundsMock {
	return &roundsMock{rounds: map[uuid.UUID]domain.PendingRound{}}
}

func (m *roundsMock) Create(_ context.Context, round domain.PendingRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[round.Token] = round
	return nil
}

func (m *roundsMock) Delete(_ context.Context, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, token)
	return nil
}

func (m *roundsMock) ListStale(_ context.Context, olderThan time.Time) ([]domain.PendingRound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []domain.PendingRound
	for _, r := range m.rounds {
		if r.StartedAt.Before(olderThan) {
			stale = append(stale, r)
		}
	}
	return stale, nil
}

func (m *roundsMock) Reclaim(_ context.Context, token uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[token]
	if !ok {
		return false, nil
	}
	delete(m.rounds, token)
	m.refunds = append(m.refunds, r)
	return true, nil
}

func (m *roundsMock) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rounds)
}

// outcomesMock records settlement writes and can fail the first N attempts.
type outcomesMock struct {
	mu       sync.Mutex
	created  []*domain.Outcome
	failures int
}

func (m *outcomesMock) Create(_ context.Context, outcome *domain.Outcome) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return uuid.Nil, errors.New("database unavailable")
	}
	copied := *outcome
	copied.ID = uuid.New()
	m.created = append(m.created, &copied)
	return copied.ID, nil
}

func (m *outcomesMock) GetByID(_ context.Context, id uuid.UUID) (*domain.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *outcomesMock) all() []*domain.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Outcome(nil), m.created...)
}

// presenterMock records delivered views.
type presenterMock struct {
	mu    sync.Mutex
	views []domain.RenderView
	fail  bool
}

func (m *presenterMock) Render(view domain.RenderView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("stream gone")
	}
	m.views = append(m.views, view)
	return nil
}

func (m *presenterMock) last() (domain.RenderView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.views) == 0 {
		return domain.RenderView{}, false
	}
	return m.views[len(m.views)-1], true
}

// scriptedRand replays fixed sequences; out-of-range reads return zero for
// IntN and one for Float64 so chance rolls never fire by accident.
type scriptedRand struct {
	ints   []int
	floats []float64
	intPos int
	fltPos int
}

func (r *scriptedRand) IntN(int) int {
	if r.intPos >= len(r.ints) {
		return 0
	}
	v := r.ints[r.intPos]
	r.intPos++
	return v
}

func (r *scriptedRand) Float64() float64 {
	if r.fltPos >= len(r.floats) {
		return 1
	}
	v := r.floats[r.fltPos]
	r.fltPos++
	return v
}
