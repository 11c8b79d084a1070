package observer

import (
	"context"
	"errors"
	"time"

	"github.com/dcshock/formpipe/pipeline"
)

type multi []pipeline.Observer

// Multi returns an Observer that calls each of observers in order. Every
// observer is called even if an earlier one fails; the errors are joined.
// Nil entries are skipped.
func Multi(observers ...pipeline.Observer) pipeline.Observer {
	m := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multi) BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.BeforePipeline(ctx, runID, name, payload))
	}
	return errors.Join(errs...)
}

func (m multi) AfterPipeline(ctx context.Context, runID string, err error) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.AfterPipeline(ctx, runID, err))
	}
	return errors.Join(errs...)
}

func (m multi) BeforeStep(ctx context.Context, runID string, stepIndex int) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.BeforeStep(ctx, runID, stepIndex))
	}
	return errors.Join(errs...)
}

func (m multi) AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error {
	var errs []error
	for _, o := range m {
		errs = append(errs, o.AfterStep(ctx, runID, stepIndex, stepErr, duration))
	}
	return errors.Join(errs...)
}
