package pipeline

import (
	"context"
	"sync"
)

// Outcome is the settled result of a run: success when Err is nil, failure otherwise.
type Outcome struct {
	Err error
}

// Succeeded reports whether the run finished without error.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Future is a single-settlement result of an asynchronous run. It is settled
// exactly once; later settle attempts are ignored. Safe for concurrent use.
//
// Futures are created by NewPromise, Go, Resolved or Rejected. The zero value
// has no done channel and Wait on it blocks forever.
type Future struct {
	done chan struct{}

	mu        sync.Mutex
	settled   bool
	outcome   Outcome
	onSuccess []func()
	onFailure []func(error)
}

// SettleFunc settles a Future. It returns false if the Future was already settled,
// in which case err is dropped.
type SettleFunc func(err error) bool

// NewPromise returns an unsettled Future and the function that settles it.
func NewPromise() (*Future, SettleFunc) {
	f := &Future{done: make(chan struct{})}
	return f, f.settle
}

// Go runs fn in a new goroutine and returns a Future settled with fn's result.
func Go(ctx context.Context, fn func(ctx context.Context) error) *Future {
	f, settle := NewPromise()
	go func() {
		settle(fn(ctx))
	}()
	return f
}

// Resolved returns a Future already settled as a success.
func Resolved() *Future {
	f, settle := NewPromise()
	settle(nil)
	return f
}

// Rejected returns a Future already settled as a failure with err.
func Rejected(err error) *Future {
	f, settle := NewPromise()
	settle(err)
	return f
}

func (f *Future) settle(err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.outcome = Outcome{Err: err}
	onSuccess, onFailure := f.onSuccess, f.onFailure
	f.onSuccess, f.onFailure = nil, nil
	f.mu.Unlock()

	// done closes before callbacks run; they may call Wait on f.
	close(f.done)
	if err == nil {
		for _, fn := range onSuccess {
			fn()
		}
		return true
	}
	for _, fn := range onFailure {
		fn(err)
	}
	return true
}

// Done returns a channel that is closed once the Future is settled. Callbacks
// registered before settlement may still be running when it closes.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the Future has been settled.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Outcome returns the settled outcome, or false if the Future is still pending.
func (f *Future) Outcome() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.settled
}

// Err returns the failure error, or nil while pending or after a success.
func (f *Future) Err() error {
	o, _ := f.Outcome()
	return o.Err
}

// Wait blocks until the Future settles and returns its error. If ctx is done
// first, Wait returns ctx.Err() and the Future keeps running.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnSuccess registers fn to run once the Future settles successfully.
// Callbacks registered before settlement run once, in registration order, on
// the settling goroutine. If the Future has already settled, fn runs
// immediately on the caller's goroutine, possibly while earlier callbacks are
// still running on the settling goroutine. The two groups are not ordered
// against each other.
func (f *Future) OnSuccess(fn func()) *Future {
	f.mu.Lock()
	if !f.settled {
		f.onSuccess = append(f.onSuccess, fn)
		f.mu.Unlock()
		return f
	}
	err := f.outcome.Err
	f.mu.Unlock()
	if err == nil {
		fn()
	}
	return f
}

// OnFailure registers fn to run once the Future settles with an error. It
// follows the same ordering rules as OnSuccess.
func (f *Future) OnFailure(fn func(error)) *Future {
	f.mu.Lock()
	if !f.settled {
		f.onFailure = append(f.onFailure, fn)
		f.mu.Unlock()
		return f
	}
	err := f.outcome.Err
	f.mu.Unlock()
	if err != nil {
		fn(err)
	}
	return f
}

// Then returns a Future that, after f succeeds, settles with the Future returned
// by next. If f fails, next is never called and the returned Future fails with
// f's error unchanged.
func (f *Future) Then(ctx context.Context, next func(ctx context.Context) *Future) *Future {
	return Go(ctx, func(ctx context.Context) error {
		if err := f.Wait(ctx); err != nil {
			return err
		}
		return next(ctx).Wait(ctx)
	})
}
