package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure CollectionStore implements the interface.
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore is an in-memory implementation of driven.CollectionStore.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]domain.Collection
}

// NewCollectionStore creates a new in-memory collection store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		collections: make(map[string]domain.Collection),
	}
}

// Save stores or updates a collection.
func (s *CollectionStore) Save(_ context.Context, collection domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection.ID] = collection
	return nil
}

// Get retrieves a collection by ID.
func (s *CollectionStore) Get(_ context.Context, id string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	collection, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &collection, nil
}

// GetByName retrieves a collection by name.
func (s *CollectionStore) GetByName(_ context.Context, name string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, collection := range s.collections {
		if collection.Name == name {
			c := collection
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns collections matching the filter, newest-created-first.
func (s *CollectionStore) List(_ context.Context, filter domain.CollectionFilter) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Collection, 0, len(s.collections))
	for _, collection := range s.collections {
		if filter.Adapter != nil && collection.Adapter != *filter.Adapter {
			continue
		}
		if filter.Enabled != nil && collection.Enabled != *filter.Enabled {
			continue
		}
		result = append(result, collection)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes a collection.
func (s *CollectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
	return nil
}

// SetStatus updates only the advisory status of a collection.
func (s *CollectionStore) SetStatus(_ context.Context, id string, status domain.CollectionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	collection, ok := s.collections[id]
	if !ok {
		return domain.ErrNotFound
	}
	collection.Status = status
	s.collections[id] = collection
	return nil
}
