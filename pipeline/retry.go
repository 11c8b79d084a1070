package pipeline

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures Retry. MaxAttempts counts the first attempt (default 3).
// Initial is the delay before the second attempt (default 100ms). Multiplier > 1
// grows the delay exponentially up to Cap (0 = no cap); otherwise the delay is
// fixed. If ShouldRetry is nil every error is retried; use IsRetryable to retry
// only errors marked with RetryableErr.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Multiplier  float64
	Cap         time.Duration
	ShouldRetry func(err error) bool
}

func (p RetryPolicy) backOff() backoff.BackOff {
	initial := p.Initial
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	if p.Multiplier <= 1 {
		return backoff.NewConstantBackOff(initial)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	if p.Cap > 0 {
		b.MaxInterval = p.Cap
	}
	return b
}

// Retry wraps a step so it is re-run in place on retryable failure, sleeping
// between attempts according to policy. The step error of the last attempt is
// returned unchanged, also when retrying stops early because ctx is done.
func Retry[C any](inner Step[C], policy RetryPolicy) Step[C] {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return func(ctx context.Context, c C) error {
		b := backoff.WithContext(backoff.WithMaxRetries(policy.backOff(), uint64(attempts-1)), ctx)
		var last error
		err := backoff.Retry(func() error {
			last = inner(ctx, c)
			if last != nil && policy.ShouldRetry != nil && !policy.ShouldRetry(last) {
				return backoff.Permanent(last)
			}
			return last
		}, b)
		if err == nil {
			return nil
		}
		// backoff reports ctx.Err() instead of the attempt's error once ctx is done
		if last != nil {
			return last
		}
		return err
	}
}
