package config

import (
	"fmt"
	"sort"

	"github.com/dcshock/formpipe/observer"
	"github.com/dcshock/formpipe/pipeline"
)

// BuildOptions configures how pipelines are built from config.
type BuildOptions struct {
	// ObserverRegistry resolves RunnerConfig.Observers in BuildObserver.
	ObserverRegistry *ObserverRegistry
}

// BuildPipeline builds a pipeline.Pipeline from config and registry. Step names in config must be registered.
func BuildPipeline[C any](reg *Registry[C], cfg *RunnerConfig) (*pipeline.Pipeline[C], error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if len(cfg.Steps) == 0 {
		return &pipeline.Pipeline[C]{Name: cfg.Name}, nil
	}
	steps := make([]pipeline.Step[C], 0, len(cfg.Steps))
	for i, ref := range cfg.Steps {
		if ref.Name == "" {
			return nil, fmt.Errorf("step %d: name required", i)
		}
		step, ok := reg.Get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("step %d: %q not in registry", i, ref.Name)
		}
		step, err := wrapStep(step, ref)
		if err != nil {
			return nil, fmt.Errorf("step %d (%q): %w", i, ref.Name, err)
		}
		steps = append(steps, step)
	}
	return &pipeline.Pipeline[C]{Name: cfg.Name, Steps: steps}, nil
}

// BuildObserver returns a pipeline.Observer for the config's Observers list by looking up each name
// in BuildOptions.ObserverRegistry and combining them with observer.Multi.
// If cfg.Observers is empty or opts.ObserverRegistry is nil, returns (nil, nil); the caller
// can attach their own observer. If any observer name is not registered, returns an error.
func BuildObserver(cfg *RunnerConfig, opts *BuildOptions) (pipeline.Observer, error) {
	if cfg == nil || len(cfg.Observers) == 0 || opts == nil || opts.ObserverRegistry == nil {
		return nil, nil
	}
	list := make([]pipeline.Observer, 0, len(cfg.Observers))
	for i, name := range cfg.Observers {
		obs, ok := opts.ObserverRegistry.Get(name)
		if !ok {
			return nil, fmt.Errorf("observer %d: %q not in registry", i, name)
		}
		list = append(list, obs)
	}
	return observer.Multi(list...), nil
}

func wrapStep[C any](s pipeline.Step[C], ref StepRef) (pipeline.Step[C], error) {
	if ref.Timeout > 0 {
		s = pipeline.WithTimeout(s, ref.Timeout.Duration())
	}
	switch ref.Retry {
	case "":
		return s, nil
	case "fixed":
		return pipeline.Retry(s, pipeline.RetryPolicy{
			MaxAttempts: ref.MaxAttempts,
			Initial:     ref.Initial.Duration(),
			ShouldRetry: pipeline.IsRetryable,
		}), nil
	case "exponential":
		policy := pipeline.RetryPolicy{
			MaxAttempts: ref.MaxAttempts,
			Initial:     ref.Initial.Duration(),
			Multiplier:  2,
			Cap:         ref.Cap.Duration(),
			ShouldRetry: pipeline.IsRetryable,
		}
		if ref.Multiplier > 0 {
			policy.Multiplier = ref.Multiplier
		}
		return pipeline.Retry(s, policy), nil
	default:
		return nil, fmt.Errorf("retry %q not supported (use \"fixed\" or \"exponential\")", ref.Retry)
	}
}

// BuildAllPipelines builds a pipeline.Pipeline for each runner in f. Keys are runner names.
// If a runner config's Name is empty, the map key is used as the pipeline name.
func BuildAllPipelines[C any](reg *Registry[C], f *File) (map[string]*pipeline.Pipeline[C], error) {
	if f == nil {
		return nil, fmt.Errorf("runners file is nil")
	}
	out := make(map[string]*pipeline.Pipeline[C], len(f.Runners))
	for _, name := range sortedKeys(f.Runners) {
		cfg := f.Runners[name]
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := BuildPipeline(reg, &cfg)
		if err != nil {
			return nil, fmt.Errorf("runner %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// BuildSequence builds a pipeline.Sequence from a sequence config by looking up the named runners
// in the built pipeline map. Each name in seq.Runners must exist in built.
func BuildSequence[C any](seq *SequenceConfig, built map[string]*pipeline.Pipeline[C]) (*pipeline.Sequence[C], error) {
	if seq == nil {
		return nil, fmt.Errorf("SequenceConfig is nil")
	}
	out := make([]*pipeline.Pipeline[C], 0, len(seq.Runners))
	for i, name := range seq.Runners {
		p, ok := built[name]
		if !ok {
			return nil, fmt.Errorf("sequence %q runner %d: %q not in built pipelines", seq.Name, i, name)
		}
		out = append(out, p)
	}
	return &pipeline.Sequence[C]{Name: seq.Name, Pipelines: out}, nil
}

// BuildAllSequences builds a pipeline.Sequence for each entry in f.Sequences using the given built pipelines.
func BuildAllSequences[C any](f *File, built map[string]*pipeline.Pipeline[C]) (map[string]*pipeline.Sequence[C], error) {
	if f == nil || len(f.Sequences) == 0 {
		return map[string]*pipeline.Sequence[C]{}, nil
	}
	out := make(map[string]*pipeline.Sequence[C], len(f.Sequences))
	for _, name := range sortedKeys(f.Sequences) {
		cfg := f.Sequences[name]
		if cfg.Name == "" {
			cfg.Name = name
		}
		seq, err := BuildSequence(&cfg, built)
		if err != nil {
			return nil, fmt.Errorf("sequence %q: %w", name, err)
		}
		out[name] = seq
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
