package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunnerConfig is the definition of one runner (e.g. from YAML): its name, the
// ordered step list and the observers attached to its runs.
type RunnerConfig struct {
	Name      string    `yaml:"name"`
	Steps     []StepRef `yaml:"steps"`
	Observers []string  `yaml:"observers"` // names registered in BuildOptions.ObserverRegistry
}

// StepRef is a single step entry: either a plain name or name + options.
// In YAML, a step can be written as:
//   - validate
//   - name: persist
//     retry: exponential
//     timeout: 5s
type StepRef struct {
	Name string `yaml:"name"`

	// Retry: "exponential" | "fixed" | "" (no retry)
	Retry string `yaml:"retry"`

	// Timeout applied to each attempt of the step (e.g. "5s").
	Timeout Duration `yaml:"timeout"`

	// For retry: initial backoff ("exponential") or fixed delay ("fixed")
	Initial Duration `yaml:"initial"`

	// For exponential retry: multiplier (default 2) and cap (e.g. "1m").
	Multiplier float64  `yaml:"multiplier"`
	Cap        Duration `yaml:"cap"`
	// Attempts including the first one (default 3).
	MaxAttempts int `yaml:"max_attempts"`
}

// UnmarshalYAML allows a step to be a string (step name only) or a struct.
func (s *StepRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		s.Name = nameOnly
		return nil
	}
	type raw StepRef
	return value.Decode((*raw)(s))
}

// Duration is a time.Duration that unmarshals from YAML strings (e.g. "60s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// SequenceConfig names runners to run one after the other over one payload.
type SequenceConfig struct {
	Name    string   `yaml:"name"`
	Runners []string `yaml:"runners"`
}

// File is the root structure of a runners file.
// Example YAML:
//
//	runners:
//	  new-student-form:
//	    steps:
//	      - validate
//	      - name: persist
//	        retry: exponential
//	        initial: 50ms
//	        max_attempts: 4
//	    observers: [log]
//	sequences:
//	  register:
//	    runners: [new-student-form-validator, new-student-form]
type File struct {
	Runners   map[string]RunnerConfig   `yaml:"runners"`
	Sequences map[string]SequenceConfig `yaml:"sequences"`
}

// ParseRunnerConfig parses YAML bytes into a single RunnerConfig.
func ParseRunnerConfig(data []byte) (*RunnerConfig, error) {
	var cfg RunnerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseFile parses YAML bytes holding "runners" and optional "sequences" maps.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses the runners file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runners file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}
