package domain

import "context"

// ProgressService records achievement progress. Fire-and-forget at
// settlement; failures never roll back the settlement.
type ProgressService interface {
	AddProgress(ctx context.Context, userID, achievement string, amount int64) error
}

// NotificationService delivers out-of-band messages to a user.
type NotificationService interface {
	Notify(ctx context.Context, userID, message string) error
}
