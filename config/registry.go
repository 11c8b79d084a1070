package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dcshock/formpipe/pipeline"
)

// Registry maps step names to pipeline steps over context type C. Safe for
// concurrent use.
type Registry[C any] struct {
	mu    sync.RWMutex
	steps map[string]pipeline.Step[C]
}

// NewRegistry returns an empty step registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{steps: make(map[string]pipeline.Step[C])}
}

// Register adds a step under the given name. Overwrites any existing registration.
func (r *Registry[C]) Register(name string, step pipeline.Step[C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps == nil {
		r.steps = make(map[string]pipeline.Step[C])
	}
	r.steps[name] = step
}

// RegisterAll registers every entry of steps.
func (r *Registry[C]) RegisterAll(steps map[string]pipeline.Step[C]) {
	for name, step := range steps {
		r.Register(name, step)
	}
}

// Get returns the step for name, or nil and false if not found.
func (r *Registry[C]) Get(name string) (pipeline.Step[C], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.steps[name]
	return s, ok
}

// MustGet returns the step for name, or panics if not found.
func (r *Registry[C]) MustGet(name string) pipeline.Step[C] {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("config: step %q not registered", name))
	}
	return s
}

// Names returns all registered step names, sorted.
func (r *Registry[C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for n := range r.steps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ObserverRegistry maps observer names (as used in runner configs) to observers.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers map[string]pipeline.Observer
}

// NewObserverRegistry returns an empty observer registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{observers: make(map[string]pipeline.Observer)}
}

// Register adds an observer under the given name.
func (r *ObserverRegistry) Register(name string, obs pipeline.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers == nil {
		r.observers = make(map[string]pipeline.Observer)
	}
	r.observers[name] = obs
}

// Get returns the observer for name.
func (r *ObserverRegistry) Get(name string) (pipeline.Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[name]
	return o, ok
}
