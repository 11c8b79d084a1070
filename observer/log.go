package observer

import (
	"context"
	"time"

	"github.com/dcshock/formpipe/pipeline"
	"go.uber.org/zap"
)

// LogObserver writes the lifecycle of every run to a zap logger. Steps are
// logged at debug level, failures at warn.
type LogObserver struct {
	logger *zap.Logger
	runs   *runTracker
	now    func() time.Time
}

var _ pipeline.Observer = (*LogObserver)(nil)

// NewLogObserver returns a LogObserver writing to logger (zap.NewNop if nil).
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger, runs: newRunTracker(), now: time.Now}
}

func (o *LogObserver) BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error {
	o.runs.start(runID, name, o.now())
	o.logger.Info("Pipeline started", zap.String("run_id", runID), zap.String("pipeline", name))
	return nil
}

func (o *LogObserver) AfterPipeline(ctx context.Context, runID string, err error) error {
	rs, _ := o.runs.finish(runID)
	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("pipeline", rs.name),
		zap.Int("steps", rs.steps),
	}
	if !rs.started.IsZero() {
		fields = append(fields, zap.Duration("elapsed", o.now().Sub(rs.started)))
	}
	if err != nil {
		o.logger.Warn("Pipeline failed", append(fields, zap.Int("step", rs.failedStep), zap.Error(err))...)
		return nil
	}
	o.logger.Info("Pipeline succeeded", fields...)
	return nil
}

func (o *LogObserver) BeforeStep(ctx context.Context, runID string, stepIndex int) error {
	o.logger.Debug("Step started",
		zap.String("run_id", runID),
		zap.String("pipeline", o.runs.name(runID)),
		zap.Int("step", stepIndex))
	return nil
}

func (o *LogObserver) AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error {
	o.runs.step(runID, stepIndex, stepErr != nil)
	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("pipeline", o.runs.name(runID)),
		zap.Int("step", stepIndex),
		zap.Duration("elapsed", duration),
	}
	if stepErr != nil {
		o.logger.Warn("Step failed", append(fields, zap.Error(stepErr))...)
		return nil
	}
	o.logger.Debug("Step finished", fields...)
	return nil
}
