package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dcshock/formpipe/pipeline"
	"github.com/segmentio/kafka-go"
)

// EventRunCompleted is the event_type header of RunCompleted messages.
const EventRunCompleted = "run_completed"

// Publisher is the part of *kafka.Writer the event observer needs.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// RunCompleted is published once per finished run.
type RunCompleted struct {
	RunID      string    `json:"run_id"`
	Pipeline   string    `json:"pipeline"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Steps      int       `json:"steps"`
	FailedStep *int      `json:"failed_step,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
}

// EventObserver publishes a RunCompleted message to Kafka when a run finishes.
// Messages are keyed by run ID.
type EventObserver struct {
	pub   Publisher
	topic string
	runs  *runTracker
	now   func() time.Time
}

var _ pipeline.Observer = (*EventObserver)(nil)

// NewEventObserver returns an EventObserver writing to topic through pub. The
// writer behind pub must not have its own Topic set.
func NewEventObserver(pub Publisher, topic string) *EventObserver {
	return &EventObserver{pub: pub, topic: topic, runs: newRunTracker(), now: time.Now}
}

func (o *EventObserver) BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error {
	o.runs.start(runID, name, o.now())
	return nil
}

func (o *EventObserver) BeforeStep(ctx context.Context, runID string, stepIndex int) error {
	return nil
}

func (o *EventObserver) AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error {
	o.runs.step(runID, stepIndex, stepErr != nil)
	return nil
}

func (o *EventObserver) AfterPipeline(ctx context.Context, runID string, err error) error {
	rs, _ := o.runs.finish(runID)
	finished := o.now().UTC()
	ev := RunCompleted{
		RunID:      runID,
		Pipeline:   rs.name,
		Status:     statusOf(err),
		Steps:      rs.steps,
		StartedAt:  rs.started.UTC(),
		FinishedAt: finished,
	}
	if !rs.started.IsZero() {
		ev.DurationMs = finished.Sub(rs.started).Milliseconds()
	}
	if err != nil {
		ev.Error = err.Error()
		if rs.failedStep >= 0 {
			idx := rs.failedStep
			ev.FailedStep = &idx
		}
	}
	data, mErr := json.Marshal(ev)
	if mErr != nil {
		return fmt.Errorf("marshal run event: %w", mErr)
	}
	msg := kafka.Message{
		Topic: o.topic,
		Key:   []byte(runID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventRunCompleted)},
			{Key: "pipeline", Value: []byte(rs.name)},
		},
	}
	if wErr := o.pub.WriteMessages(ctx, msg); wErr != nil {
		return fmt.Errorf("publish run event: %w", wErr)
	}
	return nil
}
