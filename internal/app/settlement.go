package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wagerworks/towerd/internal/domain"
	"github.com/wagerworks/towerd/internal/game"
	"github.com/wagerworks/towerd/internal/ledger"
	"github.com/wagerworks/towerd/internal/metrics"
	"github.com/wagerworks/towerd/internal/platform/retry"
)

// Settlement triggers, recorded as the metric label.
const (
	triggerAction  = "action"
	triggerTimeout = "timeout"
)

const settlementGame = "tower"

const (
	outcomeMaxAttempts    = 10
	outcomeInitialBackoff = 100 * time.Millisecond
	outcomeMaxBackoff     = 5 * time.Second
)

// settleFromMultiplier applies the finish rule: below 1x loses, exactly 1x
// refunds the bet, above 1x wins.
func (s *Service) settleFromMultiplier(ctx context.Context, sess *domain.Session, trigger string) (domain.RenderView, error) {
	switch {
	case sess.Multiplier < 1:
		return s.settle(ctx, sess, domain.ResultLose, trigger)
	case sess.Multiplier > 1:
		return s.settle(ctx, sess, domain.ResultWin, trigger)
	default:
		return s.settle(ctx, sess, domain.ResultDraw, trigger)
	}
}

// settle records the outcome durably, releases the escrow, credits the
// payout and tears the session down. The outcome write retries with backoff;
// when every attempt fails a sentinel record is written and the escrow row
// is left in place for the sweep to refund.
func (s *Service) settle(ctx context.Context, sess *domain.Session, result domain.Result, trigger string) (domain.RenderView, error) {
	sess.Status = domain.StatusSettled

	payout := int64(0)
	var xp int64
	switch result {
	case domain.ResultWin:
		payout = game.Payout(sess.Bet, sess.Multiplier)
		bonus, err := s.ledger.WagerBonus(ctx, sess.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "Bonus calculation failed, settling without it",
				"user_id", sess.UserID, "error", err)
		} else {
			payout += game.BonusPayout(payout, bonus)
		}
		xp = s.earnedXP(ctx, sess)
	case domain.ResultDraw:
		payout = sess.Bet
	}

	outcome := &domain.Outcome{
		UserID:     sess.UserID,
		Game:       settlementGame,
		Win:        result == domain.ResultWin,
		Bet:        sess.Bet,
		Earned:     payout,
		XPEarned:   xp,
		Board:      encodeBoard(sess),
		Difficulty: sess.Difficulty,
	}

	outcomeID, err := s.persistOutcome(ctx, outcome)
	if err != nil {
		metrics.OutcomeFailuresTotal.Inc()
		s.logger.ErrorContext(ctx, "Outcome persistence exhausted all retries",
			"user_id", sess.UserID, "token", sess.Token, "error", err)

		sentinel := *outcome
		sentinel.Board = domain.OutcomeFailedSentinel
		if _, serr := s.outcomes.Create(ctx, &sentinel); serr != nil {
			s.logger.ErrorContext(ctx, "Failed to write sentinel outcome",
				"user_id", sess.UserID, "token", sess.Token, "error", serr)
		}

		// The pending round stays; the sweep refunds it once the lease is gone.
		s.teardown(ctx, sess)
		metrics.SettlementsTotal.WithLabelValues(string(result), trigger).Inc()
		return domain.RenderView{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	if err := s.rounds.Delete(ctx, sess.Token); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear escrow row after settlement",
			"user_id", sess.UserID, "token", sess.Token, "error", err)
	}

	if payout > 0 {
		if err := s.ledger.Credit(ctx, sess.UserID, payout); err != nil {
			s.logger.ErrorContext(ctx, "Failed to credit payout",
				"user_id", sess.UserID, "token", sess.Token, "payout", payout, "error", err)
		}
	}
	if xp > 0 {
		if err := s.ledger.AddXP(ctx, sess.UserID, xp); err != nil {
			s.logger.WarnContext(ctx, "Failed to credit experience",
				"user_id", sess.UserID, "error", err)
		}
	}

	s.teardown(ctx, sess)
	metrics.SettlementsTotal.WithLabelValues(string(result), trigger).Inc()
	s.offerReplay(sess.UserID, sess.Bet, sess.Difficulty)

	view := settledView(sess, result, payout, outcomeID, true)
	if err := s.deliver(view); err != nil {
		s.logger.WarnContext(ctx, "Settlement render delivery failed",
			"user_id", sess.UserID, "error", err)
	}

	s.logger.InfoContext(ctx, "Session settled",
		"user_id", sess.UserID, "token", sess.Token, "result", result,
		"trigger", trigger, "payout", payout, "outcome_id", outcomeID)
	return view, nil
}

// persistOutcome writes the settlement record with bounded retries.
func (s *Service) persistOutcome(ctx context.Context, outcome *domain.Outcome) (uuid.UUID, error) {
	policy := retry.Policy{
		MaxAttempts:    outcomeMaxAttempts,
		InitialBackoff: outcomeInitialBackoff,
		MaxBackoff:     outcomeMaxBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			metrics.OutcomeRetriesTotal.Inc()
			s.logger.WarnContext(ctx, "Retrying outcome write",
				"user_id", outcome.UserID, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	return retry.Do(ctx, s.clock, policy, nil, func() (uuid.UUID, error) {
		return s.outcomes.Create(ctx, outcome)
	})
}

// teardown releases the lease, drops the session from the registry and
// updates the gauges. Safe to call with the busy claim held.
func (s *Service) teardown(ctx context.Context, sess *domain.Session) {
	s.releaseLease(ctx, sess.UserID, sess.Token)
	if s.registry.Remove(sess.UserID, sess.Token) {
		metrics.SessionsActive.Dec()
	}
}

func (s *Service) earnedXP(ctx context.Context, sess *domain.Session) int64 {
	account, err := s.ledger.Ensure(ctx, sess.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load account for experience calculation",
			"user_id", sess.UserID, "error", err)
		return 0
	}
	return ledger.EarnedXP(sess.Bet, sess.Multiplier, account.Prestige)
}

// encodeBoard serializes the final board for the outcome record, top row
// first.
func encodeBoard(sess *domain.Session) string {
	var b strings.Builder
	b.WriteString("difficulty: ")
	b.WriteString(string(sess.Difficulty))
	b.WriteString("\nA = blank | B = egg | C = clicked egg | G = gem | GC = found gem | X = bad click\n")

	for i := len(sess.Board) - 1; i >= 0; i-- {
		for _, cell := range sess.Board[i] {
			switch cell {
			case domain.CellBlank:
				b.WriteString("A")
			case domain.CellEgg:
				b.WriteString("B")
			case domain.CellEggFound:
				b.WriteString("C")
			case domain.CellGem:
				b.WriteString("G")
			case domain.CellGemFound:
				b.WriteString("GC")
			case domain.CellBust:
				b.WriteString("X")
			}
		}
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
