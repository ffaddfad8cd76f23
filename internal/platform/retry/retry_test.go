package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	clock := clockwork.NewRealClock()

	calls := 0
	val, err := Do(context.Background(), clock, policy(3), nil, func() (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	clock := clockwork.NewRealClock()
	transient := errors.New("transient")

	calls := 0
	val, err := Do(context.Background(), clock, policy(5), nil, func() (string, error) {
		calls++
		if calls < 3 {
			return "", transient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	clock := clockwork.NewRealClock()
	boom := errors.New("boom")

	calls := 0
	_, err := Do(context.Background(), clock, policy(4), nil, func() (int, error) {
		calls++
		return 0, boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	clock := clockwork.NewRealClock()
	fatal := errors.New("fatal")

	calls := 0
	_, err := Do(context.Background(), clock, policy(5), func(err error) bool { return false }, func() (int, error) {
		calls++
		return 0, fatal
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var perm *PermanentError
	require.ErrorAs(t, err, &perm)
	assert.ErrorIs(t, perm, fatal)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	clock := clockwork.NewRealClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, clock, Policy{MaxAttempts: 3, InitialBackoff: time.Hour}, nil, func() (int, error) {
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoVoid(t *testing.T) {
	clock := clockwork.NewRealClock()

	calls := 0
	err := DoVoid(context.Background(), clock, policy(2), nil, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
