package grade

import (
	"context"
	"errors"

	"github.com/dcshock/formpipe/pipeline"
	"go.uber.org/zap"
)

// MinimumPassingPercentage is the lowest average that still passes.
const MinimumPassingPercentage = 0.6

// ErrNoAssignments is returned when there is nothing to average.
var ErrNoAssignments = errors.New("grade: no assignments")

// Assignment is one graded piece of work.
type Assignment struct {
	Name  string `json:"name"`
	Grade Grade  `json:"grade"`
}

// PassingStatus decides whether a student passes from their assignments.
type PassingStatus struct {
	StudentID string
	// Minimum defaults to MinimumPassingPercentage when zero.
	Minimum float64
	Logger  *zap.Logger
}

// DeterminePassingStatus returns the service for one student.
func DeterminePassingStatus(studentID string) *PassingStatus {
	return &PassingStatus{StudentID: studentID}
}

type passingRun struct {
	assignments []Assignment
	grades      []Grade
	average     float64
	passing     bool
	minimum     float64
}

// FromAssignments extracts every assignment's grade, averages the percentages
// and compares the average with the minimum. An empty list fails with
// ErrNoAssignments.
func (s *PassingStatus) FromAssignments(ctx context.Context, assignments []Assignment) (bool, error) {
	run := &passingRun{assignments: assignments, minimum: s.Minimum}
	if run.minimum == 0 {
		run.minimum = MinimumPassingPercentage
	}
	p := &pipeline.Pipeline[*passingRun]{
		Name:  "determine-passing-status",
		Steps: []pipeline.Step[*passingRun]{extractGrades, averageGrades, decidePassing},
	}
	if err := p.Run(ctx, run, nil); err != nil {
		return false, err
	}
	if s.Logger != nil {
		s.Logger.Debug("Passing status determined",
			zap.String("student_id", s.StudentID),
			zap.Int("assignments", len(assignments)),
			zap.Float64("average", run.average),
			zap.Bool("passing", run.passing))
	}
	return run.passing, nil
}

func extractGrades(_ context.Context, r *passingRun) error {
	if len(r.assignments) == 0 {
		return ErrNoAssignments
	}
	r.grades = make([]Grade, len(r.assignments))
	for i, a := range r.assignments {
		r.grades[i] = a.Grade
	}
	return nil
}

func averageGrades(_ context.Context, r *passingRun) error {
	var sum float64
	for _, g := range r.grades {
		sum += g.Value()
	}
	r.average = sum / float64(len(r.grades))
	return nil
}

func decidePassing(_ context.Context, r *passingRun) error {
	r.passing = r.average >= r.minimum
	return nil
}
