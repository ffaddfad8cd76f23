package domain

import "errors"

var (
	ErrInvalidBet            = errors.New("invalid bet")
	ErrBetAboveMax           = errors.New("bet exceeds maximum wager")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrSessionAlreadyActive  = errors.New("session already active")
	ErrSessionNotFound       = errors.New("session not found")
	ErrInvalidMove           = errors.New("invalid move")
	ErrInteractionInProgress = errors.New("interaction already in progress")
	ErrInvalidDifficulty     = errors.New("invalid difficulty")
	ErrEligibilityDenied     = errors.New("eligibility denied")
	ErrPersistenceFailure    = errors.New("outcome persistence failed")
	ErrDeliveryFailure       = errors.New("render delivery failed")
	ErrAccountNotFound       = errors.New("account not found")
	ErrReplayUnavailable     = errors.New("replay not available")
)
