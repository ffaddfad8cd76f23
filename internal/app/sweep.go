package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wagerworks/towerd/internal/domain"
	"github.com/wagerworks/towerd/internal/metrics"
	"github.com/wagerworks/towerd/internal/platform/correlation"
)

// Leader is the election surface the sweeper needs. Implemented by
// LeaderElector.
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
	Renew(ctx context.Context) error
	Release(ctx context.Context) error
}

// BalanceCache is the slice of the economy cache the sweep keeps coherent.
// A reclaim credits the account row directly, so the cached balance must be
// dropped or a Debit inside the TTL would write the stale value back.
type BalanceCache interface {
	InvalidateBalance(ctx context.Context, userID string) error
}

// Sweeper periodically reclaims pending rounds whose owning process died
// without settling. Only the elected leader sweeps, so a refund happens at
// most once fleet-wide.
type Sweeper struct {
	rounds   domain.RoundRepository
	outcomes domain.OutcomeRepository
	lease    domain.SessionLease
	cache    BalanceCache
	leader   Leader
	interval time.Duration
	horizon  time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	stopCh   chan struct{}
}

// NewSweeper wires the sweep job. horizon is the age beyond which a pending
// round is considered abandoned; it must comfortably exceed every session
// timer.
func NewSweeper(
	rounds domain.RoundRepository,
	outcomes domain.OutcomeRepository,
	lease domain.SessionLease,
	cache BalanceCache,
	leader Leader,
	interval, horizon time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		rounds:   rounds,
		outcomes: outcomes,
		lease:    lease,
		cache:    cache,
		leader:   leader,
		interval: interval,
		horizon:  horizon,
		clock:    clock,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.sweep(ctx)
		case <-s.stopCh:
			if err := s.leader.Release(ctx); err != nil {
				s.logger.Warn("Failed to release sweep leadership", "error", err)
			}
			s.logger.Info("Sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweeper context cancelled")
			return
		}
	}
}

// Stop gracefully stops the loop and releases leadership.
func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())

	acquired, err := s.leader.TryAcquire(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Leader election failed", "error", err)
		return
	}
	if !acquired {
		// Possibly already leader from a previous tick; renew confirms it.
		if err := s.leader.Renew(ctx); err != nil {
			return
		}
	}

	metrics.SweepRunsTotal.Inc()

	cutoff := s.clock.Now().Add(-s.horizon)
	stale, err := s.rounds.ListStale(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list stale rounds", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	s.logger.InfoContext(ctx, "Sweeping stale rounds", "count", len(stale))
	for _, round := range stale {
		s.reclaim(ctx, round)
	}
}

// reclaim refunds one abandoned round. A round whose lease token still holds
// belongs to a live session somewhere in the fleet and is skipped.
func (s *Sweeper) reclaim(ctx context.Context, round domain.PendingRound) {
	holder, held, err := s.lease.Holder(ctx, round.UserID)
	if err != nil {
		metrics.SweepSkippedTotal.WithLabelValues("lease_check_failed").Inc()
		s.logger.WarnContext(ctx, "Lease check failed for stale round",
			"user_id", round.UserID, "token", round.Token, "error", err)
		return
	}
	if held && holder == round.Token {
		metrics.SweepSkippedTotal.WithLabelValues("live").Inc()
		return
	}

	reclaimed, err := s.rounds.Reclaim(ctx, round.Token)
	if err != nil {
		metrics.SweepSkippedTotal.WithLabelValues("reclaim_failed").Inc()
		s.logger.ErrorContext(ctx, "Failed to reclaim stale round",
			"user_id", round.UserID, "token", round.Token, "error", err)
		return
	}
	if !reclaimed {
		metrics.SweepSkippedTotal.WithLabelValues("already_settled").Inc()
		return
	}

	metrics.SweepReclaimedTotal.Inc()
	s.logger.InfoContext(ctx, "Refunded abandoned round",
		"user_id", round.UserID, "token", round.Token, "bet", round.Bet)

	if err := s.cache.InvalidateBalance(ctx, round.UserID); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate balance cache after reclaim",
			"user_id", round.UserID, "error", err)
	}

	record := &domain.Outcome{
		UserID:     round.UserID,
		Game:       settlementGame,
		Win:        false,
		Bet:        round.Bet,
		Earned:     round.Bet,
		Board:      "orphan-reclaimed",
		Difficulty: "",
	}
	if _, err := s.outcomes.Create(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "Failed to record reclaim outcome",
			"user_id", round.UserID, "token", round.Token, "error", err)
	}
}
