package postprocessors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// BuilderFunc creates a stage from its settings. Values may be any of the
// shapes the config stores produce (int, int64, float64 or string).
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps stage names to builders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.mu.Lock()
	r.builders[name] = builder
	r.mu.Unlock()
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// Build creates the stage called name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown processor %q (have %v)", name, r.Names())
	}
	stage, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build processor %s: %w", name, err)
	}
	return stage, nil
}

// BuildPipeline builds the named stages in order. configs is keyed by
// stage name; a missing entry builds the stage with its defaults.
func (r *Registry) BuildPipeline(names []string, configs map[string]map[string]any) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one processor")
	}
	p := NewPipeline()
	for _, name := range names {
		stage, err := r.Build(name, configs[name])
		if err != nil {
			return nil, err
		}
		p.Add(stage)
	}
	return p, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
