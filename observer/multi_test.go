package observer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dcshock/formpipe/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	name  string
	trail *[]string
	err   error
}

func (c countingObserver) BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error {
	*c.trail = append(*c.trail, c.name+":before")
	return c.err
}

func (c countingObserver) AfterPipeline(ctx context.Context, runID string, err error) error {
	*c.trail = append(*c.trail, c.name+":after")
	return nil
}

func (c countingObserver) BeforeStep(ctx context.Context, runID string, stepIndex int) error {
	*c.trail = append(*c.trail, c.name+":step")
	return nil
}

func (c countingObserver) AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error {
	*c.trail = append(*c.trail, c.name+":stepdone")
	return nil
}

func TestMulti_CallsEachInOrder(t *testing.T) {
	var trail []string
	obs := Multi(countingObserver{name: "a", trail: &trail}, nil, countingObserver{name: "b", trail: &trail})
	p := &pipeline.Pipeline[*signup]{Name: "signup", Steps: []pipeline.Step[*signup]{pipeline.Noop[*signup]()}}
	require.NoError(t, p.Run(context.Background(), &signup{}, &pipeline.RunOptions{Observer: obs}))
	assert.Equal(t, []string{
		"a:before", "b:before",
		"a:step", "b:step",
		"a:stepdone", "b:stepdone",
		"a:after", "b:after",
	}, trail)
}

func TestMulti_JoinsErrors(t *testing.T) {
	var trail []string
	errA, errB := errors.New("a failed"), errors.New("b failed")
	obs := Multi(countingObserver{name: "a", trail: &trail, err: errA}, countingObserver{name: "b", trail: &trail, err: errB})
	err := obs.BeforePipeline(context.Background(), "r", "n", nil)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"a:before", "b:before"}, trail)
}

func TestMulti_Empty(t *testing.T) {
	obs := Multi()
	assert.NoError(t, obs.BeforePipeline(context.Background(), "r", "n", nil))
	assert.NoError(t, obs.AfterPipeline(context.Background(), "r", errors.New("x")))
}
