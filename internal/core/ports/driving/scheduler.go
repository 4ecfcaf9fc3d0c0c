package driving

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// Scheduler installs cron triggers for collections and dispatches runs.
type Scheduler interface {
	// ScheduleAll installs triggers for every enabled collection with a
	// non-empty schedule, replacing any existing triggers.
	ScheduleAll(ctx context.Context) error

	// Schedule installs or replaces the trigger for one collection.
	Schedule(collection domain.Collection) error

	// Unschedule removes the trigger for a collection. Idempotent.
	Unschedule(collectionID string)

	// Start arms all installed triggers.
	Start()

	// Stop disarms all installed triggers without removing them.
	Stop()

	// RunCollection executes one run for the collection. If a run for the
	// same collection is already active this call is a logged no-op.
	RunCollection(ctx context.Context, collectionID string)

	// Running reports whether a run is currently active for the collection.
	Running(collectionID string) bool
}

// RunListener receives run lifecycle signals from the scheduler.
// Implementations must be safe for concurrent use; a nil listener
// disables signalling.
type RunListener interface {
	// RunStarted is called when a run begins.
	RunStarted(collectionID, runID string)

	// RunCompleted is called when a run finalises successfully.
	RunCompleted(collectionID, runID string, result RunResult)

	// RunFailed is called when a run finalises with an error.
	RunFailed(collectionID, runID string, err error)
}

// RunResult summarises a completed run for observers.
type RunResult struct {
	DocumentsDiscovered int
	DocumentsExtracted  int
	DocumentsIndexed    int
	ErrorCount          int
}
