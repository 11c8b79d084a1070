package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_RetryableErrRetried(t *testing.T) {
	calls := 0
	inner := func(ctx context.Context, _ *record) error {
		calls++
		if calls < 3 {
			return RetryableErr(errors.New("transient"))
		}
		return nil
	}
	stp := Retry(Step[*record](inner), RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond, ShouldRetry: IsRetryable})
	if err := stp(context.Background(), &record{}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetry_NonRetryablePropagates(t *testing.T) {
	calls := 0
	errPermanent := errors.New("permanent")
	inner := func(ctx context.Context, _ *record) error {
		calls++
		return errPermanent
	}
	stp := Retry(Step[*record](inner), RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond, ShouldRetry: IsRetryable})
	if err := stp(context.Background(), &record{}); err != errPermanent {
		t.Fatalf("expected unchanged error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	calls := 0
	inner := func(ctx context.Context, _ *record) error {
		calls++
		return errors.New("always")
	}
	stp := Retry(Step[*record](inner), RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Multiplier: 2, Cap: 2 * time.Millisecond})
	if err := stp(context.Background(), &record{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	base := errors.New("x")
	err := RetryableErr(base)
	if !IsRetryable(err) || !errors.Is(err, base) {
		t.Error("RetryableErr should be retryable and unwrap")
	}
	if IsRetryable(base) {
		t.Error("plain error should not be retryable")
	}
}

func TestRetry_CancelledKeepsLastAttemptError(t *testing.T) {
	errTransient := errors.New("store down")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	inner := func(ctx context.Context, _ *record) error {
		calls++
		cancel()
		return RetryableErr(errTransient)
	}
	stp := Retry(Step[*record](inner), RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond, ShouldRetry: IsRetryable})
	err := stp(ctx, &record{})
	if !errors.Is(err, errTransient) || !IsRetryable(err) {
		t.Fatalf("expected the attempt's error, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("ctx error must not replace the step error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetry_DeadlineDuringBackoffKeepsLastAttemptError(t *testing.T) {
	errTransient := errors.New("store down")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	inner := func(ctx context.Context, _ *record) error {
		return RetryableErr(errTransient)
	}
	stp := Retry(Step[*record](inner), RetryPolicy{MaxAttempts: 5, Initial: time.Second, ShouldRetry: IsRetryable})
	if err := stp(ctx, &record{}); !errors.Is(err, errTransient) {
		t.Fatalf("expected the attempt's error, got %v", err)
	}
}
