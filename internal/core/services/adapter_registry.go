package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure AdapterRegistry implements the interface.
var _ driven.AdapterFactory = (*AdapterRegistry)(nil)

// FactoryFunc builds one adapter instance for a collection.
type FactoryFunc func(ctx context.Context, config driven.AdapterConfig) (driven.SourceAdapter, error)

// AdapterRegistry maps adapter kinds to their factories. Kinds are
// registered at wiring time; the core itself never contains per-source
// fetch logic.
type AdapterRegistry struct {
	mu        sync.RWMutex
	factories map[string]FactoryFunc
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		factories: make(map[string]FactoryFunc),
	}
}

// Register installs a factory for an adapter kind, replacing any
// previous registration.
func (r *AdapterRegistry) Register(kind string, factory FactoryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Kinds returns the registered adapter kinds, sorted.
func (r *AdapterRegistry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Supported reports whether an adapter kind is registered.
func (r *AdapterRegistry) Supported(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Create builds an adapter for the given kind.
func (r *AdapterRegistry) Create(ctx context.Context, kind string, config driven.AdapterConfig) (driven.SourceAdapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: adapter kind %q", domain.ErrUnsupportedType, kind)
	}
	return factory(ctx, config)
}
