package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// CollectionStore persists collection configuration.
type CollectionStore interface {
	// Save stores or updates a collection.
	Save(ctx context.Context, collection domain.Collection) error

	// Get retrieves a collection by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Collection, error)

	// GetByName retrieves a collection by name.
	// Returns domain.ErrNotFound if it does not exist.
	GetByName(ctx context.Context, name string) (*domain.Collection, error)

	// List returns collections matching the filter, ordered
	// newest-created-first. A zero filter matches everything.
	List(ctx context.Context, filter domain.CollectionFilter) ([]domain.Collection, error)

	// Delete removes a collection.
	Delete(ctx context.Context, id string) error

	// SetStatus updates only the advisory status of a collection.
	SetStatus(ctx context.Context, id string, status domain.CollectionStatus) error
}

// Stores bundles the typed stores visible inside one transaction.
type Stores struct {
	Collections CollectionStore
	Runs        RunStore
}

// TxRunner executes a function inside a storage transaction. The stores
// passed to fn see each other's writes; nothing is durable until fn
// returns nil, and a non-nil error rolls everything back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(st *Stores) error) error
}

// RunStore persists runs and their error records.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.Run) error

	// Get retrieves a run by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// ListByCollection returns runs for a collection, most recent first.
	ListByCollection(ctx context.Context, collectionID string, limit int) ([]domain.Run, error)

	// SaveCheckpoint durably persists the run's resumption token.
	// The token is only considered committed once this returns nil.
	SaveCheckpoint(ctx context.Context, runID, checkpoint string) error

	// RecordError attaches a failure record to a run and increments
	// the run's error counter.
	RecordError(ctx context.Context, runErr domain.RunError) error

	// ListErrors returns error records for a run, oldest first.
	ListErrors(ctx context.Context, runID string) ([]domain.RunError, error)

	// DeleteByCollection removes all runs and their errors for a collection.
	DeleteByCollection(ctx context.Context, collectionID string) error

	// ReconcileStale finalises runs left in the running state by an
	// unclean shutdown, marking them failed with an interrupted error.
	// Returns the number of runs reconciled.
	ReconcileStale(ctx context.Context) (int, error)
}
