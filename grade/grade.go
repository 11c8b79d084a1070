package grade

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned for percentages outside [0, 1].
var ErrOutOfRange = errors.New("grade: percentage out of range")

// Grade is an immutable percentage score in [0, 1].
type Grade struct {
	percentage float64
}

// New returns the grade for percentage.
func New(percentage float64) (Grade, error) {
	if math.IsNaN(percentage) || percentage < 0 || percentage > 1 {
		return Grade{}, fmt.Errorf("%w: %v", ErrOutOfRange, percentage)
	}
	return Grade{percentage: percentage}, nil
}

// MustNew is like New but panics on an invalid percentage.
func MustNew(percentage float64) Grade {
	g, err := New(percentage)
	if err != nil {
		panic(err)
	}
	return g
}

// FromValue rebuilds a grade from the output of Value.
func FromValue(v float64) (Grade, error) { return New(v) }

// Value returns the percentage the grade was created with.
func (g Grade) Value() float64 { return g.percentage }

// IsBetterThan reports whether g scores strictly higher than other.
func (g Grade) IsBetterThan(other Grade) bool { return g.percentage > other.percentage }

// IsImprovementFrom reports whether g improves on an earlier grade.
func (g Grade) IsImprovementFrom(earlier Grade) bool { return g.IsBetterThan(earlier) }

// IsPassing reports whether g reaches MinimumPassingPercentage.
func (g Grade) IsPassing() bool { return g.percentage >= MinimumPassingPercentage }

// Equal reports whether both grades have the same value.
func Equal(a, b Grade) bool { return a.Value() == b.Value() }

func (g Grade) String() string { return fmt.Sprintf("%.2f%%", g.percentage*100) }

// MarshalJSON encodes the grade as its bare percentage.
func (g Grade) MarshalJSON() ([]byte, error) { return json.Marshal(g.percentage) }

// UnmarshalJSON decodes a bare percentage and rejects values out of range.
func (g *Grade) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	ng, err := FromValue(v)
	if err != nil {
		return err
	}
	*g = ng
	return nil
}
