package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure SchedulerService implements the interface.
var _ driving.Scheduler = (*SchedulerService)(nil)

// SchedulerService installs cron triggers for collections and dispatches
// runs through the runner. At most one run per collection is active at a
// time; overlapping triggers are dropped, not queued.
type SchedulerService struct {
	collections driven.CollectionStore
	runner      *RunnerService
	listener    driving.RunListener

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	active  map[string]string // collection ID -> run ID
	wg      sync.WaitGroup
}

// NewSchedulerService creates a scheduler. listener may be nil.
func NewSchedulerService(
	collections driven.CollectionStore,
	runner *RunnerService,
	listener driving.RunListener,
) *SchedulerService {
	return &SchedulerService{
		collections: collections,
		runner:      runner,
		listener:    listener,
		cron:        cron.New(),
		entries:     make(map[string]cron.EntryID),
		active:      make(map[string]string),
	}
}

// ScheduleAll installs triggers for every enabled collection with a
// non-empty schedule, replacing any existing triggers.
func (s *SchedulerService) ScheduleAll(ctx context.Context) error {
	enabled := true
	collections, err := s.collections.List(ctx, domain.CollectionFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	for _, collection := range collections {
		if !collection.Schedulable() {
			continue
		}
		if err := s.Schedule(collection); err != nil {
			log.Printf("scheduler: skipping collection %s: %v", collection.ID, err)
		}
	}
	return nil
}

// Schedule installs or replaces the trigger for one collection.
// Returns domain.ErrValidation for an unparsable cron expression.
func (s *SchedulerService) Schedule(collection domain.Collection) error {
	if !collection.Schedulable() {
		return fmt.Errorf("%w: collection %s is not schedulable", domain.ErrValidation, collection.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[collection.ID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, collection.ID)
	}

	id := collection.ID
	entryID, err := s.cron.AddFunc(collection.Schedule, func() {
		s.RunCollection(context.Background(), id)
	})
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", domain.ErrValidation, collection.Schedule, err)
	}
	s.entries[collection.ID] = entryID

	logger.Debug("scheduler: installed trigger %q for collection %s", collection.Schedule, collection.ID)
	return nil
}

// Unschedule removes the trigger for a collection. Idempotent.
func (s *SchedulerService) Unschedule(collectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[collectionID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, collectionID)
		logger.Debug("scheduler: removed trigger for collection %s", collectionID)
	}
}

// Start arms all installed triggers.
func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop disarms the triggers and waits for in-flight runs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

// Running reports whether a run is currently active for the collection.
func (s *SchedulerService) Running(collectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[collectionID]
	return ok
}

// RunCollection executes one run for the collection, synchronously.
// If a run for the same collection is already active this is a logged
// no-op. Failures are recorded against the run, never propagated.
func (s *SchedulerService) RunCollection(ctx context.Context, collectionID string) {
	collection, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		log.Printf("scheduler: loading collection %s: %v", collectionID, err)
		return
	}

	runID := uuid.NewString()

	s.mu.Lock()
	if activeID, ok := s.active[collectionID]; ok {
		s.mu.Unlock()
		log.Printf("scheduler: run %s already active for collection %s, skipping", activeID, collectionID)
		return
	}
	s.active[collectionID] = runID
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.active, collectionID)
		s.mu.Unlock()
	}()

	if s.listener != nil {
		s.listener.RunStarted(collectionID, runID)
	}

	result, err := s.runner.Execute(ctx, *collection, runID)
	if err != nil {
		log.Printf("scheduler: run for collection %s failed: %v", collectionID, err)
		if s.listener != nil {
			s.listener.RunFailed(collectionID, runID, err)
		}
		return
	}
	if s.listener != nil {
		s.listener.RunCompleted(collectionID, runID, result)
	}
}
