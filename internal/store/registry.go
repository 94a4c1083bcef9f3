package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory opens a Store for the given options.
type Factory func(ctx context.Context, opts Options) (Store, error)

// Registry maps driver names to backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterDriver registers a backend factory for a driver name.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Open creates the backend named by opts.Driver.
func (r *Registry) Open(ctx context.Context, opts Options) (Store, error) {
	r.mu.RLock()
	factory, ok := r.factories[opts.Driver]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver: %s (available: %v)", opts.Driver, r.Drivers())
	}

	s, err := factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Driver, err)
	}
	return s, nil
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
