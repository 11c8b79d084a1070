// Package pipeline: standard steps and step wrappers.

package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Noop returns a step that does nothing and succeeds.
// Useful as a placeholder or as an observer boundary.
func Noop[C any]() Step[C] {
	return func(ctx context.Context, c C) error {
		return nil
	}
}

// Tap returns a step that calls fn(ctx, c) and always succeeds.
// Use for logging, metrics, or side effects that cannot fail.
func Tap[C any](fn func(context.Context, C)) Step[C] {
	return func(ctx context.Context, c C) error {
		fn(ctx, c)
		return nil
	}
}

// Check returns a step that succeeds only if predicate(c) is true. Otherwise it
// fails with a *StepError carrying errMsg ("check failed" when empty).
func Check[C any](predicate func(C) bool, errMsg string) Step[C] {
	if errMsg == "" {
		errMsg = "check failed"
	}
	return func(ctx context.Context, c C) error {
		if !predicate(c) {
			return Fail(errMsg)
		}
		return nil
	}
}

// WithTimeout wraps inner so it runs with a context deadline of now+timeout.
// inner must honour ctx for the deadline to have any effect.
func WithTimeout[C any](inner Step[C], timeout time.Duration) Step[C] {
	return func(ctx context.Context, c C) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return inner(ctx, c)
	}
}

// ErrAbandoned is returned by an Async step when ctx is done before the step
// signalled completion. It is joined with ctx.Err().
var ErrAbandoned = errors.New("async step: context done before completion signal")

// Done is the completion signal handed to an AsyncFunc: nil to proceed, an
// error to fail the run. Only the first call has any effect.
type Done func(err error)

// AsyncFunc is a callback-style step: it must eventually call done exactly once,
// possibly from another goroutine.
type AsyncFunc[C any] func(ctx context.Context, c C, done Done)

// Async adapts a callback-style step. The pipeline does not move on until done is
// called or ctx is done; calls to done after the first are ignored.
func Async[C any](fn AsyncFunc[C]) Step[C] {
	return func(ctx context.Context, c C) error {
		signal := make(chan error, 1)
		var once sync.Once
		done := func(err error) {
			once.Do(func() { signal <- err })
		}
		fn(ctx, c, done)
		select {
		case err := <-signal:
			return err
		case <-ctx.Done():
			select {
			case err := <-signal:
				return err
			default:
				return errors.Join(ErrAbandoned, ctx.Err())
			}
		}
	}
}
