package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// callPolicy applies the retry policy and per-call timeout to one external call.
type callPolicy struct {
	retry   domain.RetryPolicy
	timeout time.Duration
}

// do runs fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. Attempts run on a context detached from ctx and
// bounded only by the per-call timeout, so cancelling ctx never aborts a
// call in flight. ctx only stops attempts that have not started and cuts
// the linearly growing waits between them.
func (p callPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	detached := context.WithoutCancel(ctx)
	var last error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retry.Delay(attempt)
			logger.Debug("%s: retry %d/%d in %s after: %v", op, attempt, p.retry.MaxRetries, delay, last)
			if err := sleep(ctx, delay); err != nil {
				return last
			}
		}
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return fmt.Errorf("%w: %s: %w", domain.ErrCancelled, op, err)
		}

		callCtx, cancel := p.withTimeout(detached)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		last = err

		if !domain.IsRetryable(err) {
			return err
		}
	}

	return last
}

func (p callPolicy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
