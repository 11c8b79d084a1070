package observer

import (
	"sync"
	"time"
)

// runState is what the log and event observers remember between BeforePipeline
// and AfterPipeline, which only receives the run ID.
type runState struct {
	name       string
	started    time.Time
	steps      int
	failedStep int
}

type runTracker struct {
	mu   sync.Mutex
	runs map[string]*runState
}

func newRunTracker() *runTracker {
	return &runTracker{runs: make(map[string]*runState)}
}

func (t *runTracker) start(runID, name string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[runID] = &runState{name: name, started: now, failedStep: -1}
}

func (t *runTracker) step(runID string, stepIndex int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rs, ok := t.runs[runID]
	if !ok {
		return
	}
	rs.steps++
	if failed {
		rs.failedStep = stepIndex
	}
}

func (t *runTracker) name(runID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rs, ok := t.runs[runID]; ok {
		return rs.name
	}
	return ""
}

// finish removes and returns the state of runID.
func (t *runTracker) finish(runID string) (runState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rs, ok := t.runs[runID]
	if !ok {
		return runState{failedStep: -1}, false
	}
	delete(t.runs, runID)
	return *rs, true
}
