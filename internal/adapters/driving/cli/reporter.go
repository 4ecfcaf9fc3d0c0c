package cli

import (
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure RunReporter implements the interface.
var _ driving.RunListener = (*RunReporter)(nil)

// RunReporter records run outcomes so commands that dispatch runs
// synchronously can report the result afterwards.
type RunReporter struct {
	mu      sync.Mutex
	results map[string]driving.RunResult
	errs    map[string]error
}

// NewRunReporter creates an empty reporter.
func NewRunReporter() *RunReporter {
	return &RunReporter{
		results: make(map[string]driving.RunResult),
		errs:    make(map[string]error),
	}
}

// RunStarted logs the dispatch.
func (r *RunReporter) RunStarted(collectionID, runID string) {
	logger.Info("run %s started for collection %s", runID, collectionID)
}

// RunCompleted records the final counters for the collection.
func (r *RunReporter) RunCompleted(collectionID, _ string, result driving.RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[collectionID] = result
	delete(r.errs, collectionID)
}

// RunFailed records the failure for the collection.
func (r *RunReporter) RunFailed(collectionID, _ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[collectionID] = err
	delete(r.results, collectionID)
}

// Last returns the most recent outcome for a collection. The second
// return is false when no run has finished yet.
func (r *RunReporter) Last(collectionID string) (driving.RunResult, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[collectionID]; ok {
		return driving.RunResult{}, true, err
	}
	result, ok := r.results[collectionID]
	return result, ok, nil
}
