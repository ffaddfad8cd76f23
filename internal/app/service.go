package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/wagerworks/towerd/internal/domain"
	"github.com/wagerworks/towerd/internal/game"
	"github.com/wagerworks/towerd/internal/metrics"
	"github.com/wagerworks/towerd/internal/platform/correlation"
)

// gemDropChance is the probability that revealing the board's gem also drops
// a collectible gem, gated fleet-wide by the drop gate.
const gemDropChance = 0.005

const itemGreenGem = "green_gem"

const (
	achievementGemHunter = "gem_hunter"
	achievementTowerPro  = "tower_pro"
)

// Ledger is the money layer the engine drives. Implemented by ledger.Service.
type Ledger interface {
	Ensure(ctx context.Context, userID string) (*domain.Account, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64) error
	Credit(ctx context.Context, userID string, amount int64) error
	AddXP(ctx context.Context, userID string, delta int64) error
	WagerBonus(ctx context.Context, userID string) (float64, error)
	MaxWager(ctx context.Context, userID string) (int64, error)
	DefaultBet(ctx context.Context, userID string) (int64, error)
}

// Timers bounds the session lifecycle: FirstMove refunds an untouched
// session, Idle settles a stalled one, Replay bounds the post-settlement
// replay offer.
type Timers struct {
	FirstMove time.Duration
	Idle      time.Duration
	Replay    time.Duration
}

type replayOffer struct {
	bet        int64
	difficulty domain.Difficulty
	expiresAt  time.Time
}

// Service drives sessions through escrow, play and settlement.
type Service struct {
	timers    Timers
	registry  *Registry
	ledger    Ledger
	lease     domain.SessionLease
	rounds    domain.RoundRepository
	outcomes  domain.OutcomeRepository
	gate      domain.Gatekeeper
	dropGate  domain.DropGate
	inventory domain.InventoryRepository
	progress  domain.ProgressService
	notifier  domain.NotificationService
	presenter domain.Presenter
	rng       game.Rand
	clock     clockwork.Clock
	logger    *slog.Logger

	replayMu sync.Mutex
	replays  map[string]replayOffer
}

// Options carries the optional collaborators of the engine. Nil fields
// disable the corresponding side effect.
type Options struct {
	Gatekeeper domain.Gatekeeper
	DropGate   domain.DropGate
	Inventory  domain.InventoryRepository
	Progress   domain.ProgressService
	Notifier   domain.NotificationService
}

// NewService wires the session engine.
func NewService(
	timers Timers,
	registry *Registry,
	ledger Ledger,
	lease domain.SessionLease,
	rounds domain.RoundRepository,
	outcomes domain.OutcomeRepository,
	presenter domain.Presenter,
	rng game.Rand,
	clock clockwork.Clock,
	logger *slog.Logger,
	opts Options,
) *Service {
	return &Service{
		timers:    timers,
		registry:  registry,
		ledger:    ledger,
		lease:     lease,
		rounds:    rounds,
		outcomes:  outcomes,
		gate:      opts.Gatekeeper,
		dropGate:  opts.DropGate,
		inventory: opts.Inventory,
		progress:  opts.Progress,
		notifier:  opts.Notifier,
		presenter: presenter,
		rng:       rng,
		clock:     clock,
		logger:    logger,
		replays:   make(map[string]replayOffer),
	}
}

// Start escrows the bet and opens a new session. A bet of zero falls back to
// the user's stored default bet.
func (s *Service) Start(ctx context.Context, userID string, bet int64, difficulty domain.Difficulty) (domain.RenderView, error) {
	if s.gate != nil {
		if err := s.gate.CheckEligibility(ctx, userID); err != nil {
			return domain.RenderView{}, err
		}
	}
	if !difficulty.Valid() {
		return domain.RenderView{}, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, difficulty)
	}

	if _, err := s.ledger.Ensure(ctx, userID); err != nil {
		return domain.RenderView{}, err
	}

	if bet == 0 {
		fallback, err := s.ledger.DefaultBet(ctx, userID)
		if err != nil {
			return domain.RenderView{}, err
		}
		bet = fallback
	}
	if bet <= 0 {
		return domain.RenderView{}, domain.ErrInvalidBet
	}

	max, err := s.ledger.MaxWager(ctx, userID)
	if err != nil {
		return domain.RenderView{}, err
	}
	if bet > max {
		return domain.RenderView{}, fmt.Errorf("%w: limit %d", domain.ErrBetAboveMax, max)
	}

	token := uuid.New()
	acquired, err := s.lease.Acquire(ctx, userID, token)
	if err != nil {
		return domain.RenderView{}, err
	}
	if !acquired {
		return domain.RenderView{}, domain.ErrSessionAlreadyActive
	}

	if err := s.ledger.Debit(ctx, userID, bet); err != nil {
		s.releaseLease(ctx, userID, token)
		return domain.RenderView{}, err
	}

	now := s.clock.Now()
	if err := s.rounds.Create(ctx, domain.PendingRound{
		UserID:    userID,
		Token:     token,
		Bet:       bet,
		StartedAt: now,
	}); err != nil {
		s.refund(ctx, userID, bet)
		s.releaseLease(ctx, userID, token)
		return domain.RenderView{}, err
	}

	board, err := game.NewBoard(difficulty, s.rng)
	if err != nil {
		s.abortStart(ctx, userID, token, bet)
		return domain.RenderView{}, err
	}

	sess := &domain.Session{
		Token:        token,
		UserID:       userID,
		Bet:          bet,
		Board:        board,
		Difficulty:   difficulty,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		LastActionAt: now,
	}
	if err := s.registry.Create(sess); err != nil {
		s.abortStart(ctx, userID, token, bet)
		return domain.RenderView{}, err
	}

	metrics.SessionsActive.Inc()
	metrics.SessionsStartedTotal.WithLabelValues(string(difficulty)).Inc()

	s.clock.AfterFunc(s.timers.FirstMove, func() { s.expireUntouched(userID, token) })

	view := liveView(sess)
	if err := s.deliver(view); err != nil {
		s.logger.WarnContext(ctx, "Render delivery failed at session start",
			"user_id", userID, "error", err)
	}

	s.logger.InfoContext(ctx, "Session started",
		"user_id", userID, "token", token, "bet", bet, "difficulty", difficulty)
	return view, nil
}

// abortStart unwinds a half-opened session: escrow row, debit and lease.
func (s *Service) abortStart(ctx context.Context, userID string, token uuid.UUID, bet int64) {
	if err := s.rounds.Delete(ctx, token); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete pending round during abort",
			"user_id", userID, "token", token, "error", err)
	}
	s.refund(ctx, userID, bet)
	s.releaseLease(ctx, userID, token)
}

func (s *Service) refund(ctx context.Context, userID string, amount int64) {
	if err := s.ledger.Credit(ctx, userID, amount); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refund bet",
			"user_id", userID, "amount", amount, "error", err)
	}
}

func (s *Service) releaseLease(ctx context.Context, userID string, token uuid.UUID) {
	if err := s.lease.Release(ctx, userID, token); err != nil {
		s.logger.WarnContext(ctx, "Failed to release session lease",
			"user_id", userID, "token", token, "error", err)
	}
}

// Reveal uncovers the chosen column of the active row.
func (s *Service) Reveal(ctx context.Context, userID string, column int) (domain.RenderView, error) {
	return s.reveal(ctx, userID, func(width int) (int, error) {
		if column < 0 || column >= width {
			return 0, fmt.Errorf("%w: column %d out of range", domain.ErrInvalidMove, column)
		}
		return column, nil
	})
}

// RevealRandom uncovers a random column of the active row.
func (s *Service) RevealRandom(ctx context.Context, userID string) (domain.RenderView, error) {
	return s.reveal(ctx, userID, func(width int) (int, error) {
		return s.rng.IntN(width), nil
	})
}

func (s *Service) reveal(ctx context.Context, userID string, pick func(width int) (int, error)) (domain.RenderView, error) {
	sess, err := s.registry.Begin(userID)
	if err != nil {
		return domain.RenderView{}, err
	}
	defer s.registry.End(userID)

	row := sess.Board.ActiveRow()
	cells := sess.Board[row]
	column, err := pick(len(cells))
	if err != nil {
		return domain.RenderView{}, err
	}

	switch cells[column] {
	case domain.CellBlank:
		cells[column] = domain.CellBust
		return s.settle(ctx, sess, domain.ResultLose, triggerAction)

	case domain.CellEgg, domain.CellGem:
		if cells[column] == domain.CellGem {
			cells[column] = domain.CellGemFound
			sess.Multiplier += game.GemFlatBonus
			s.maybeDropGem(ctx, userID)
		} else {
			cells[column] = domain.CellEggFound
		}
		sess.Multiplier += game.RevealGain(sess.Difficulty, row)

		if row == domain.BoardRows-1 {
			if sess.Difficulty != domain.DifficultyEasy {
				s.addProgress(ctx, userID, achievementTowerPro, 1)
			}
			sess.Multiplier += game.TopBonus(sess.Difficulty)
			return s.settleFromMultiplier(ctx, sess, triggerAction)
		}

		sess.LastActionAt = s.clock.Now()
		s.renewLease(ctx, sess)
		s.clock.AfterFunc(s.timers.Idle, func() { s.expireIdle(userID, sess.Token) })

		view := liveView(sess)
		if err := s.deliver(view); err != nil {
			s.logger.WarnContext(ctx, "Render delivery failed mid-session",
				"user_id", userID, "error", err)
		}
		return view, nil

	default:
		return domain.RenderView{}, fmt.Errorf("%w: square already revealed", domain.ErrInvalidMove)
	}
}

// Finish settles the session at its current multiplier: below 1x loses,
// exactly 1x refunds, above 1x wins.
func (s *Service) Finish(ctx context.Context, userID string) (domain.RenderView, error) {
	sess, err := s.registry.Begin(userID)
	if err != nil {
		return domain.RenderView{}, err
	}
	defer s.registry.End(userID)

	return s.settleFromMultiplier(ctx, sess, triggerAction)
}

// Current returns the live view of the user's session, if any. It claims the
// session like any other interaction; reading the board while a reveal
// mutates it would hand out a torn snapshot.
func (s *Service) Current(ctx context.Context, userID string) (domain.RenderView, error) {
	sess, err := s.registry.Begin(userID)
	if err != nil {
		return domain.RenderView{}, err
	}
	defer s.registry.End(userID)
	return liveView(sess), nil
}

// replayMinTier is the premium tier required to accept a replay offer.
const replayMinTier = 2

// Replay starts a fresh session with the settled one's bet and difficulty,
// valid only inside the replay window and only for premium accounts. The
// tier check runs first so a rejected attempt does not burn the offer.
func (s *Service) Replay(ctx context.Context, userID string) (domain.RenderView, error) {
	account, err := s.ledger.Ensure(ctx, userID)
	if err != nil {
		return domain.RenderView{}, err
	}
	if account.Tier < replayMinTier {
		return domain.RenderView{}, fmt.Errorf("%w: requires premium tier %d", domain.ErrReplayUnavailable, replayMinTier)
	}

	s.replayMu.Lock()
	offer, ok := s.replays[userID]
	if ok {
		delete(s.replays, userID)
	}
	s.replayMu.Unlock()

	if !ok || s.clock.Now().After(offer.expiresAt) {
		return domain.RenderView{}, domain.ErrReplayUnavailable
	}
	return s.Start(ctx, userID, offer.bet, offer.difficulty)
}

func (s *Service) offerReplay(userID string, bet int64, difficulty domain.Difficulty) {
	s.replayMu.Lock()
	s.replays[userID] = replayOffer{
		bet:        bet,
		difficulty: difficulty,
		expiresAt:  s.clock.Now().Add(s.timers.Replay),
	}
	s.replayMu.Unlock()
}

// expireUntouched fires when the first-move timer elapses. A session that
// saw no reveal is refunded in full; anything else is left to the idle timer.
func (s *Service) expireUntouched(userID string, token uuid.UUID) {
	ctx := correlation.WithID(context.Background(), correlation.NewID())

	sess, err := s.registry.Begin(userID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			metrics.StaleTimersIgnoredTotal.Inc()
		}
		return
	}
	defer s.registry.End(userID)

	if sess.Token != token {
		metrics.StaleTimersIgnoredTotal.Inc()
		return
	}
	if boardTouched(sess.Board) {
		return
	}

	s.logger.InfoContext(ctx, "Refunding untouched session", "user_id", userID, "token", token)
	if _, err := s.settle(ctx, sess, domain.ResultDraw, triggerTimeout); err != nil {
		s.logger.ErrorContext(ctx, "Failed to settle untouched session",
			"user_id", userID, "token", token, "error", err)
	}
}

// expireIdle fires when the idle timer elapses. Timers armed by superseded
// actions notice a fresher LastActionAt and stand down.
func (s *Service) expireIdle(userID string, token uuid.UUID) {
	ctx := correlation.WithID(context.Background(), correlation.NewID())

	sess, err := s.registry.Begin(userID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			metrics.StaleTimersIgnoredTotal.Inc()
		}
		return
	}
	defer s.registry.End(userID)

	if sess.Token != token {
		metrics.StaleTimersIgnoredTotal.Inc()
		return
	}
	if s.clock.Since(sess.LastActionAt) < s.timers.Idle {
		metrics.StaleTimersIgnoredTotal.Inc()
		return
	}

	s.logger.InfoContext(ctx, "Settling idle session",
		"user_id", userID, "token", token, "multiplier", sess.Multiplier)
	if _, err := s.settleFromMultiplier(ctx, sess, triggerTimeout); err != nil {
		s.logger.ErrorContext(ctx, "Failed to settle idle session",
			"user_id", userID, "token", token, "error", err)
	}
}

func (s *Service) renewLease(ctx context.Context, sess *domain.Session) {
	if err := s.lease.Renew(ctx, sess.UserID, sess.Token); err != nil {
		s.logger.ErrorContext(ctx, "Failed to renew session lease",
			"user_id", sess.UserID, "token", sess.Token, "error", err)
	}
}

// maybeDropGem rolls the rare collectible drop behind the fleet-wide gate.
func (s *Service) maybeDropGem(ctx context.Context, userID string) {
	if s.dropGate == nil || s.inventory == nil {
		return
	}
	if s.rng.Float64() >= gemDropChance {
		return
	}

	claimed, err := s.dropGate.TryClaim(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Drop gate check failed", "error", err)
		return
	}
	if !claimed {
		return
	}

	if err := s.inventory.Add(ctx, userID, itemGreenGem, 1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to grant dropped gem", "user_id", userID, "error", err)
		return
	}
	s.addProgress(ctx, userID, achievementGemHunter, 1)
	s.notify(ctx, userID, "you found a gem!! it has been added to your inventory")
	s.logger.InfoContext(ctx, "Collectible gem dropped", "user_id", userID)
}

func (s *Service) addProgress(ctx context.Context, userID, achievement string, amount int64) {
	if s.progress == nil {
		return
	}
	if err := s.progress.AddProgress(ctx, userID, achievement, amount); err != nil {
		s.logger.WarnContext(ctx, "Failed to record achievement progress",
			"user_id", userID, "achievement", achievement, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, userID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver notification", "user_id", userID, "error", err)
	}
}

// deliver pushes a view to the presenter. Delivery is best effort on every
// path; callers log the wrapped error and carry on.
func (s *Service) deliver(view domain.RenderView) error {
	if err := s.presenter.Render(view); err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)
	}
	return nil
}

func boardTouched(board domain.Board) bool {
	for _, row := range board {
		for _, cell := range row {
			if cell.Revealed() {
				return true
			}
		}
	}
	return false
}
