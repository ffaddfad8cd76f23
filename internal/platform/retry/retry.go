// Package retry implements a bounded retry policy with exponential backoff
// and error classification.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Classify decides whether an error is worth another attempt. Returning
// false aborts immediately and wraps the error in *PermanentError.
type Classify func(err error) bool

// Policy bounds a retried operation. MaxAttempts must be at least 1.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

// Operation is a retryable unit of work returning a value.
type Operation[T any] func() (T, error)

// Do runs op under the policy. The backoff doubles after each failed
// attempt, capped at MaxBackoff. Sleeps go through clock so tests can use a
// fake. A context cancellation during backoff stops the loop.
func Do[T any](ctx context.Context, clock clockwork.Clock, p Policy, retryable Classify, op Operation[T]) (T, error) {
	var zero T
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		if retryable != nil && !retryable(err) {
			return zero, &PermanentError{Err: err}
		}

		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		select {
		case <-clock.After(backoff):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}

// DoVoid is Do for operations without a return value.
func DoVoid(ctx context.Context, clock clockwork.Clock, p Policy, retryable Classify, op func() error) error {
	_, err := Do(ctx, clock, p, retryable, func() (struct{}, error) { return struct{}{}, op() })
	return err
}

// PermanentError marks an error the classifier refused to retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
