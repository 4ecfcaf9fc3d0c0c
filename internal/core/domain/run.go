package domain

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	// RunRunning means the run is executing.
	RunRunning RunStatus = "running"

	// RunCompleted means the run finished without a fatal error.
	RunCompleted RunStatus = "completed"

	// RunFailed means the run was finalised with an error, or was found
	// stale after an unclean shutdown.
	RunFailed RunStatus = "failed"
)

// Run represents one execution attempt of a collection. A run is created
// at dispatch, mutated only by the executing job, and finalised exactly
// once; it is never re-opened.
type Run struct {
	// ID is the unique identifier for the run.
	ID string

	// CollectionID links to the collection being run.
	CollectionID string

	// StartedAt is when the run started.
	StartedAt time.Time

	// CompletedAt is when the run finalised. Zero while active.
	CompletedAt time.Time

	// Status is the run lifecycle state.
	Status RunStatus

	// DocumentsDiscovered counts documents the adapter yielded.
	DocumentsDiscovered int

	// DocumentsExtracted counts documents whose content was extracted.
	DocumentsExtracted int

	// DocumentsIndexed counts documents handed to the indexing consumer.
	DocumentsIndexed int

	// ErrorCount counts errors recorded against this run.
	ErrorCount int

	// Checkpoint is the adapter-opaque resumption token, persisted
	// verbatim. A resumed run starts from the latest persisted value.
	Checkpoint string
}

// Active returns true while the run has not been finalised.
func (r *Run) Active() bool {
	return r.Status == RunRunning
}

// RunError is one failure record attached to a run.
type RunError struct {
	// ID is the unique identifier for the error record.
	ID string

	// RunID links to the run this error occurred in.
	RunID string

	// Code is a short machine-readable error class.
	Code string

	// Message is the human-readable error description.
	Message string

	// Details carries free-form structured context.
	Details map[string]any

	// OccurredAt is when the error was recorded.
	OccurredAt time.Time
}
