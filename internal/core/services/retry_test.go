package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestCallPolicy_SucceedsFirstTry(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2}}
	calls := 0

	err := p.do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallPolicy_RetriesTransientFailures(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2}}
	calls := 0

	err := p.do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCallPolicy_ExhaustsBudget(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2}}
	calls := 0

	err := p.do(context.Background(), "op", func(context.Context) error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, errTransient)
	})

	require.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "attempt 3", "the last error is returned")
	assert.Equal(t, 3, calls)
}

func TestCallPolicy_DoesNotRetryPermanentErrors(t *testing.T) {
	for _, sentinel := range []error{domain.ErrInvalidInput, domain.ErrPermanent, domain.ErrUnsupportedType} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 5}}
			calls := 0

			err := p.do(context.Background(), "op", func(context.Context) error {
				calls++
				return fmt.Errorf("wrapped: %w", sentinel)
			})

			require.ErrorIs(t, err, sentinel)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestCallPolicy_ZeroRetries(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 0}}
	calls := 0

	err := p.do(context.Background(), "op", func(context.Context) error {
		calls++
		return errTransient
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallPolicy_TimeoutPerAttempt(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 1}, timeout: 20 * time.Millisecond}
	calls := 0

	start := time.Now()
	err := p.do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls, "a timed out attempt is retried")
	assert.Less(t, time.Since(start), time.Second)
}

func TestCallPolicy_BackoffGrowsLinearly(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2, Backoff: 20 * time.Millisecond}}
	var stamps []time.Time

	_ = p.do(context.Background(), "op", func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errTransient
	})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestCallPolicy_CancelledDuringBackoff(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 3, Backoff: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.do(ctx, "op", func(context.Context) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestCallPolicy_CancelDoesNotPreemptAttemptInFlight(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2}, timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := p.do(ctx, "op", func(callCtx context.Context) error {
		calls++
		cancel()
		select {
		case <-callCtx.Done():
			return callCtx.Err()
		case <-time.After(30 * time.Millisecond):
			return nil
		}
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallPolicy_CancelStopsFurtherAttempts(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 3}}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := p.do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestCallPolicy_CancelledBeforeFirstAttempt(t *testing.T) {
	p := callPolicy{retry: domain.RetryPolicy{MaxRetries: 2}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := p.do(ctx, "deliver to sheets", func(context.Context) error {
		calls++
		return nil
	})

	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "deliver to sheets")
	assert.Zero(t, calls)
}

func TestCallPolicy_AttemptKeepsContextValues(t *testing.T) {
	type key struct{}
	p := callPolicy{retry: domain.RetryPolicy{}}
	ctx := context.WithValue(context.Background(), key{}, "run-42")

	err := p.do(ctx, "op", func(callCtx context.Context) error {
		assert.Equal(t, "run-42", callCtx.Value(key{}))
		return nil
	})

	require.NoError(t, err)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), 0))
	assert.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(sleep(ctx, time.Hour), context.Canceled))
}
