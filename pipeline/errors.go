package pipeline

import (
	"errors"
	"fmt"
)

// StepError is the generic failure value a step may return. Payload is opaque to
// the pipeline (validation details, collaborator failure details, ...).
type StepError struct {
	Payload interface{}
}

func (e *StepError) Error() string {
	switch p := e.Payload.(type) {
	case nil:
		return "step failed"
	case string:
		return p
	case error:
		return p.Error()
	default:
		return fmt.Sprintf("step failed: %v", p)
	}
}

// Unwrap exposes an error payload to errors.Is/As.
func (e *StepError) Unwrap() error {
	if err, ok := e.Payload.(error); ok {
		return err
	}
	return nil
}

// Fail returns a *StepError carrying payload.
func Fail(payload interface{}) error { return &StepError{Payload: payload} }

// PayloadOf returns the payload of the first *StepError in err's chain.
func PayloadOf(err error) (interface{}, bool) {
	var se *StepError
	if !errors.As(err, &se) {
		return nil, false
	}
	return se.Payload, true
}

// Retryable marks err as retryable. Use with RetryPolicy.ShouldRetry so only
// these errors trigger a retry (e.g. transient failures), not permanent ones.
type Retryable struct{ Err error }

func (e *Retryable) Error() string { return e.Err.Error() }
func (e *Retryable) Unwrap() error { return e.Err }
func RetryableErr(err error) error { return &Retryable{Err: err} }
func IsRetryable(err error) bool   { return errors.As(err, new(*Retryable)) }
