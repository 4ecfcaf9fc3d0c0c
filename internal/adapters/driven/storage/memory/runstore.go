package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu     sync.RWMutex
	runs   map[string]domain.Run
	errors map[string][]domain.RunError
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:   make(map[string]domain.Run),
		errors: make(map[string][]domain.RunError),
	}
}

// Save stores or updates a run.
func (s *RunStore) Save(_ context.Context, run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListByCollection returns runs for a collection, most recent first.
func (s *RunStore) ListByCollection(_ context.Context, collectionID string, limit int) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	result := make([]domain.Run, 0)
	for _, run := range s.runs {
		if run.CollectionID == collectionID {
			result = append(result, run)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SaveCheckpoint persists the run's resumption token.
func (s *RunStore) SaveCheckpoint(_ context.Context, runID, checkpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.ErrNotFound
	}
	run.Checkpoint = checkpoint
	s.runs[runID] = run
	return nil
}

// RecordError attaches a failure record to a run and increments the counter.
func (s *RunStore) RecordError(_ context.Context, runErr domain.RunError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runErr.RunID]
	if !ok {
		return domain.ErrNotFound
	}
	if runErr.ID == "" {
		runErr.ID = uuid.NewString()
	}
	if runErr.OccurredAt.IsZero() {
		runErr.OccurredAt = time.Now().UTC()
	}
	s.errors[runErr.RunID] = append(s.errors[runErr.RunID], runErr)
	run.ErrorCount++
	s.runs[runErr.RunID] = run
	return nil
}

// ListErrors returns error records for a run, oldest first.
func (s *RunStore) ListErrors(_ context.Context, runID string) ([]domain.RunError, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.errors[runID]
	result := make([]domain.RunError, len(records))
	copy(result, records)
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// DeleteByCollection removes all runs and their errors for a collection.
func (s *RunStore) DeleteByCollection(_ context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		if run.CollectionID == collectionID {
			delete(s.errors, id)
			delete(s.runs, id)
		}
	}
	return nil
}

// ReconcileStale finalises runs left running by an unclean shutdown.
func (s *RunStore) ReconcileStale(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	count := 0
	for id, run := range s.runs {
		if run.Status != domain.RunRunning {
			continue
		}
		run.Status = domain.RunFailed
		run.CompletedAt = now
		run.ErrorCount++
		s.runs[id] = run
		s.errors[id] = append(s.errors[id], domain.RunError{
			ID:         uuid.NewString(),
			RunID:      id,
			Code:       "interrupted",
			Message:    "run was interrupted by an unclean shutdown",
			OccurredAt: now,
		})
		count++
	}
	return count, nil
}
