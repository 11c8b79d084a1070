package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Step is a single unit of work in a pipeline. It reads and/or mutates the run's
// context value c and returns nil to proceed or an error to stop the run.
type Step[C any] func(ctx context.Context, c C) error

// Observer provides pre/post hooks for pipeline and step execution so a run can be
// logged, persisted or published. BeforePipeline is called before any step runs.
// BeforeStep/AfterStep are called around each step. AfterPipeline is called when the
// pipeline finishes (success or error).
type Observer interface {
	BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error
	AfterPipeline(ctx context.Context, runID string, err error) error
	BeforeStep(ctx context.Context, runID string, stepIndex int) error
	AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error
}

// RunOptions is optional and used to attach an Observer and a RunID.
// If RunID is empty, a new UUID is generated for the run.
// StepOffset is added to each step index when calling the Observer.
type RunOptions struct {
	Observer   Observer
	RunID      string
	StepOffset int
}

type runMetaKey struct{}

type runMeta struct {
	RunID, PipelineName string
	StepIndex           int
}

// RunIDFromContext returns the run ID of the pipeline run executing the current step.
func RunIDFromContext(ctx context.Context) (string, bool) {
	m, ok := ctx.Value(runMetaKey{}).(runMeta)
	return m.RunID, ok
}

// StepIndexFromContext returns the pipeline-local index of the step being executed.
func StepIndexFromContext(ctx context.Context) (int, bool) {
	m, ok := ctx.Value(runMetaKey{}).(runMeta)
	return m.StepIndex, ok
}

// Pipeline runs an ordered list of steps against one context value. Steps run
// strictly one after the other and the first failing step ends the run.
type Pipeline[C any] struct {
	Name  string
	Steps []Step[C]
}

// Run executes every step in order with c as the shared context value and returns
// the first step error exactly as the step returned it, or nil when all steps
// succeed. A cancelled ctx stops the run before the next step starts.
// There is no built-in timeout: a step that never returns stalls the run
// (wrap it with WithTimeout if that matters).
func (p *Pipeline[C]) Run(ctx context.Context, c C, opts *RunOptions) error {
	var obs Observer
	var runID string
	offset := 0
	if opts != nil {
		obs, runID, offset = opts.Observer, opts.RunID, opts.StepOffset
	}
	if runID == "" {
		runID = uuid.New().String()
	}
	if obs == nil {
		return p.runSteps(ctx, c, nil, runID, offset)
	}
	if err := obs.BeforePipeline(ctx, runID, p.Name, c); err != nil {
		return fmt.Errorf("before pipeline: %w", err)
	}
	err := p.runSteps(ctx, c, obs, runID, offset)
	if postErr := obs.AfterPipeline(ctx, runID, err); postErr != nil && err == nil {
		// Don't mask the step error
		err = fmt.Errorf("after pipeline: %w", postErr)
	}
	return err
}

// Start runs the pipeline in its own goroutine and returns a Future that settles
// with the run's outcome.
func (p *Pipeline[C]) Start(ctx context.Context, c C, opts *RunOptions) *Future {
	return Go(ctx, func(ctx context.Context) error {
		return p.Run(ctx, c, opts)
	})
}

// runSteps runs steps with optional observer hooks. offset is added to the step
// index when calling the observer (global indices inside a Sequence).
func (p *Pipeline[C]) runSteps(ctx context.Context, c C, obs Observer, runID string, offset int) error {
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		globalIdx := i + offset
		if obs != nil {
			if err := obs.BeforeStep(ctx, runID, globalIdx); err != nil {
				return fmt.Errorf("before step %d: %w", globalIdx, err)
			}
		}
		stepCtx := context.WithValue(ctx, runMetaKey{}, runMeta{RunID: runID, PipelineName: p.Name, StepIndex: i})
		start := time.Now()
		stepErr := step(stepCtx, c)
		duration := time.Since(start)
		if obs != nil {
			if postErr := obs.AfterStep(ctx, runID, globalIdx, stepErr, duration); postErr != nil && stepErr == nil {
				stepErr = fmt.Errorf("after step %d: %w", globalIdx, postErr)
			}
		}
		if stepErr != nil {
			return stepErr
		}
	}
	return nil
}

// Sequence runs multiple pipelines in order over the same context value and
// stops on the first error (like shell &&). Observer step indices are global
// across all pipelines of the sequence.
type Sequence[C any] struct {
	Name      string
	Pipelines []*Pipeline[C]
}

// Run executes the sequence with c as every pipeline's context value. Returns nil
// when all pipelines succeed, or the first step error unchanged.
func (s *Sequence[C]) Run(ctx context.Context, c C, opts *RunOptions) error {
	var obs Observer
	var runID string
	if opts != nil {
		obs, runID = opts.Observer, opts.RunID
	}
	if runID == "" {
		runID = uuid.New().String()
	}
	if obs != nil {
		if err := obs.BeforePipeline(ctx, runID, s.Name, c); err != nil {
			return fmt.Errorf("before pipeline: %w", err)
		}
	}
	err := s.runPipelines(ctx, c, obs, runID)
	if obs != nil {
		if postErr := obs.AfterPipeline(ctx, runID, err); postErr != nil && err == nil {
			err = fmt.Errorf("after pipeline: %w", postErr)
		}
	}
	return err
}

// Start runs the sequence in its own goroutine and returns a Future for its outcome.
func (s *Sequence[C]) Start(ctx context.Context, c C, opts *RunOptions) *Future {
	return Go(ctx, func(ctx context.Context) error {
		return s.Run(ctx, c, opts)
	})
}

func (s *Sequence[C]) runPipelines(ctx context.Context, c C, obs Observer, runID string) error {
	offset := 0
	for _, p := range s.Pipelines {
		if err := p.runSteps(ctx, c, obs, runID, offset); err != nil {
			return err
		}
		offset += len(p.Steps)
	}
	return nil
}
