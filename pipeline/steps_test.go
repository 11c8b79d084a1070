package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoop(t *testing.T) {
	if err := Noop[int]()(context.Background(), 1); err != nil {
		t.Errorf("Noop: err = %v", err)
	}
}

func TestTap(t *testing.T) {
	ctx := context.Background()
	var seen *record
	r := &record{}
	stp := Tap(func(c context.Context, v *record) { seen = v })
	if err := stp(ctx, r); err != nil {
		t.Fatalf("Tap: err = %v", err)
	}
	if seen != r {
		t.Errorf("Tap: fn called with %v", seen)
	}
}

func TestCheck_Pass(t *testing.T) {
	stp := Check(func(n int) bool { return n > 0 }, "must be positive")
	if err := stp(context.Background(), 42); err != nil {
		t.Errorf("Check(42): err = %v", err)
	}
}

func TestCheck_Fail(t *testing.T) {
	stp := Check(func(n int) bool { return n > 0 }, "must be positive")
	err := stp(context.Background(), 0)
	if err == nil {
		t.Fatal("Check(0): expected error")
	}
	if err.Error() != "must be positive" {
		t.Errorf("Check(0): got %q", err.Error())
	}
	payload, ok := PayloadOf(err)
	if !ok || payload != "must be positive" {
		t.Errorf("payload: got %v %v", payload, ok)
	}
}

func TestCheck_DefaultErrMsg(t *testing.T) {
	err := Check(func(n int) bool { return false }, "")(context.Background(), 1)
	if err == nil || err.Error() != "check failed" {
		t.Errorf("got %v", err)
	}
}

func TestWithTimeout_Completes(t *testing.T) {
	stp := WithTimeout(Noop[int](), time.Second)
	if err := stp(context.Background(), 21); err != nil {
		t.Fatalf("WithTimeout: err = %v", err)
	}
}

func TestWithTimeout_Exceeded(t *testing.T) {
	inner := func(ctx context.Context, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	}
	stp := WithTimeout(Step[int](inner), 10*time.Millisecond)
	err := stp(context.Background(), 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WithTimeout: got %v", err)
	}
}

func TestAsync_Success(t *testing.T) {
	stp := Async(func(ctx context.Context, r *record, done Done) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			done(nil)
		}()
	})
	if err := stp(context.Background(), &record{}); err != nil {
		t.Fatal(err)
	}
}

func TestAsync_SecondSignalIgnored(t *testing.T) {
	ctx := context.Background()
	errFirst := errors.New("first")
	r := &record{}
	p := &Pipeline[*record]{
		Name: "double-signal",
		Steps: []Step[*record]{
			Async(func(ctx context.Context, r *record, done Done) {
				done(errFirst)
				done(nil)
				done(errors.New("late"))
			}),
			step("next"),
		},
	}
	if err := p.Start(ctx, r, nil).Wait(ctx); err != errFirst {
		t.Fatalf("got %v, want %v", err, errFirst)
	}
	if len(r.ran) != 0 {
		t.Errorf("step after failure ran: %v", r.ran)
	}
}

func TestAsync_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	stp := Async(func(ctx context.Context, r *record, done Done) {})
	err := stp(ctx, &record{})
	if !errors.Is(err, ErrAbandoned) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v", err)
	}
}

func TestStepError(t *testing.T) {
	cause := errors.New("duplicate")
	err := Fail(cause)
	if !errors.Is(err, cause) {
		t.Error("StepError should unwrap an error payload")
	}
	if err.Error() != "duplicate" {
		t.Errorf("Error(): %q", err.Error())
	}
	if (&StepError{}).Error() != "step failed" {
		t.Error("nil payload message")
	}
	if Fail(map[string]string{"email": "invalid"}).Error() != "step failed: map[email:invalid]" {
		t.Errorf("map payload message: %q", Fail(map[string]string{"email": "invalid"}).Error())
	}
	if _, ok := PayloadOf(errors.New("plain")); ok {
		t.Error("plain error has no payload")
	}
}
