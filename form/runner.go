package form

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dcshock/formpipe/pipeline"
	"go.uber.org/zap"
)

// ErrAlreadyStarted is the rejection of every Run call after the first one.
var ErrAlreadyStarted = errors.New("runner already started")

// State is the lifecycle state of a Runner.
type State int32

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// FeedbackFunc reports a failed run back to the user (flash message, error
// list, ...). It runs before the runner's Future rejects.
type FeedbackFunc func(ctx context.Context, err error)

type settings struct {
	feedback FeedbackFunc
	observer pipeline.Observer
	runID    string
	logger   *zap.Logger
}

// Option configures a Runner.
type Option func(*settings)

// WithFeedback sets the hook called with the failing step's error.
func WithFeedback(fn FeedbackFunc) Option {
	return func(s *settings) { s.feedback = fn }
}

// WithObserver attaches a pipeline.Observer to the run.
func WithObserver(obs pipeline.Observer) Option {
	return func(s *settings) { s.observer = obs }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(runID string) Option {
	return func(s *settings) { s.runID = runID }
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// flow is what a Runner drives: a *pipeline.Pipeline or a *pipeline.Sequence.
type flow[C any] interface {
	Run(ctx context.Context, c C, opts *pipeline.RunOptions) error
}

// Runner runs one payload through a fixed list of steps exactly once.
type Runner[C any] struct {
	name     string
	data     C
	flow     flow[C]
	steps    int
	settings settings

	state atomic.Int32
}

func newRunner[C any](name string, data C, f flow[C], steps int, opts []Option) *Runner[C] {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return &Runner[C]{name: name, data: data, flow: f, steps: steps, settings: s}
}

// New returns an idle Runner for data. The steps slice is copied, so later
// changes to it do not affect the runner.
func New[C any](name string, data C, steps []pipeline.Step[C], opts ...Option) *Runner[C] {
	p := &pipeline.Pipeline[C]{Name: name, Steps: append([]pipeline.Step[C](nil), steps...)}
	return newRunner(name, data, p, len(steps), opts)
}

// NewSequence returns an idle Runner that runs the pipelines of seq one after
// the other over data. It behaves like a Runner from New: single use, feedback
// before rejection, observer hooks with global step indices. The runner is
// named after seq.
func NewSequence[C any](seq *pipeline.Sequence[C], data C, opts ...Option) *Runner[C] {
	cp := &pipeline.Sequence[C]{Name: seq.Name, Pipelines: append([]*pipeline.Pipeline[C](nil), seq.Pipelines...)}
	steps := 0
	for _, p := range cp.Pipelines {
		steps += len(p.Steps)
	}
	return newRunner(seq.Name, data, cp, steps, opts)
}

// Data returns the payload the runner was built with.
func (r *Runner[C]) Data() C { return r.data }

// State returns the current lifecycle state.
func (r *Runner[C]) State() State { return State(r.state.Load()) }

// Run starts the run and returns its Future. Only the first call starts a run;
// later calls return a Future rejected with ErrAlreadyStarted and leave the
// runner untouched.
func (r *Runner[C]) Run(ctx context.Context) *pipeline.Future {
	if !r.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return pipeline.Rejected(fmt.Errorf("%s: %w", r.name, ErrAlreadyStarted))
	}
	opts := &pipeline.RunOptions{Observer: r.settings.observer, RunID: r.settings.runID}
	logger := r.settings.logger.With(zap.String("runner", r.name))
	logger.Debug("Runner started", zap.Int("steps", r.steps))

	return pipeline.Go(ctx, func(ctx context.Context) error {
		err := r.flow.Run(ctx, r.data, opts)
		if err != nil {
			logger.Warn("Runner failed", zap.Error(err))
			if r.settings.feedback != nil {
				r.settings.feedback(ctx, err)
			}
			r.state.Store(int32(Failed))
			return err
		}
		logger.Debug("Runner succeeded")
		r.state.Store(int32(Succeeded))
		return nil
	})
}
