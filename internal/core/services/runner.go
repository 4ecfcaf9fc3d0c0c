package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
	"github.com/custodia-labs/harvest-cli/internal/queue"
	"github.com/custodia-labs/harvest-cli/internal/ratelimit"
	"github.com/custodia-labs/harvest-cli/internal/retry"
	"github.com/custodia-labs/harvest-cli/internal/sanitize"
)

// RunnerService executes one collection run end to end: it builds the
// adapter, streams documents through sanitisation into the queue, and
// keeps the run row and its checkpoint durable as it goes.
type RunnerService struct {
	collections driven.CollectionStore
	runs        driven.RunStore
	cipher      driven.CredentialCipher
	adapters    driven.AdapterFactory
	queue       *queue.DocumentQueue
	sanitizer   *sanitize.Client
	limits      *ratelimit.Registry
	retry       retry.Policy
}

// NewRunnerService creates a run executor. sanitizer may be nil to skip
// content sanitisation entirely.
func NewRunnerService(
	collections driven.CollectionStore,
	runs driven.RunStore,
	cipher driven.CredentialCipher,
	adapters driven.AdapterFactory,
	docQueue *queue.DocumentQueue,
	sanitizer *sanitize.Client,
	limits *ratelimit.Registry,
) *RunnerService {
	if docQueue == nil {
		docQueue = queue.New(queue.DefaultMaxSize)
	}
	if limits == nil {
		limits = ratelimit.NewRegistry()
	}
	return &RunnerService{
		collections: collections,
		runs:        runs,
		cipher:      cipher,
		adapters:    adapters,
		queue:       docQueue,
		sanitizer:   sanitizer,
		limits:      limits,
		retry:       retry.NewPolicy(),
	}
}

// Queue returns the document queue runs feed into.
func (s *RunnerService) Queue() *queue.DocumentQueue {
	return s.queue
}

// Execute runs one collection cycle. An empty runID gets a generated
// one. The returned result carries the final counters; a non-nil error
// means the run was finalised as failed.
func (s *RunnerService) Execute(ctx context.Context, collection domain.Collection, runID string) (driving.RunResult, error) {
	var result driving.RunResult
	if runID == "" {
		runID = uuid.NewString()
	}

	creds, err := s.decryptCredentials(ctx, collection)
	if err != nil {
		return result, err
	}

	checkpoint, err := s.latestCheckpoint(ctx, collection.ID)
	if err != nil {
		return result, err
	}

	adapter, err := s.adapters.Create(ctx, collection.Adapter, driven.AdapterConfig{
		CollectionID: collection.ID,
		Settings:     collection.Settings,
		Credentials:  creds,
		Checkpoint:   checkpoint,
	})
	if err != nil {
		return result, fmt.Errorf("building adapter: %w", err)
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			log.Printf("runner: closing adapter for %s: %v", collection.ID, closeErr)
		}
	}()
	if checkpoint != "" {
		adapter.SetCheckpoint(checkpoint)
	}

	run := domain.Run{
		ID:           runID,
		CollectionID: collection.ID,
		StartedAt:    time.Now().UTC(),
		Status:       domain.RunRunning,
		Checkpoint:   checkpoint,
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return result, fmt.Errorf("creating run: %w", err)
	}
	if err := s.collections.SetStatus(ctx, collection.ID, domain.CollectionRunning); err != nil {
		log.Printf("runner: setting status for %s: %v", collection.ID, err)
	}

	logger.Info("runner: run %s started for collection %s", run.ID, collection.Name)

	if err := s.retry.Do(ctx, adapter.Initialize); err != nil {
		initErr := fmt.Errorf("initialising adapter: %w", err)
		s.finalize(ctx, &run, &result, initErr)
		return result, initErr
	}

	fetchErr := s.stream(ctx, adapter, collection, &run)
	s.finalize(ctx, &run, &result, fetchErr)
	return result, fetchErr
}

// decryptCredentials resolves the collection's plaintext credentials,
// or nil when none are stored.
func (s *RunnerService) decryptCredentials(_ context.Context, collection domain.Collection) (map[string]any, error) {
	if !collection.HasCredentials() {
		return nil, nil
	}
	creds, err := s.cipher.Decrypt(collection.CredentialsEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials for %s: %w", collection.ID, err)
	}
	return creds, nil
}

// latestCheckpoint finds the most recent run's resumption token.
// Failed and interrupted runs keep their checkpoints, so a new run
// always resumes from the last durable cursor.
func (s *RunnerService) latestCheckpoint(ctx context.Context, collectionID string) (string, error) {
	runs, err := s.runs.ListByCollection(ctx, collectionID, 1)
	if err != nil {
		return "", fmt.Errorf("loading previous runs: %w", err)
	}
	if len(runs) == 0 {
		return "", nil
	}
	return runs[0].Checkpoint, nil
}

// stream consumes the adapter's document channel until it closes or a
// terminal failure arrives. The fetch only counts as successful once
// both channels are closed: a terminal error sent just before the
// channels close must never be lost to select ordering.
func (s *RunnerService) stream(ctx context.Context, adapter driven.SourceAdapter, collection domain.Collection, run *domain.Run) error {
	docs, errs := adapter.FetchDocuments(ctx)
	limiter := s.limits.Get(collection.Adapter, ratelimit.DefaultMaxTokens, ratelimit.DefaultRefillRate)

	for docs != nil || errs != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("fetching documents: %w", err)
			}

		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			if err := s.processDocument(ctx, adapter, limiter, doc, run); err != nil {
				return err
			}
		}
	}
	return nil
}

// processDocument sanitises and enqueues one document, then makes the
// adapter's advanced checkpoint durable before the document counts.
func (s *RunnerService) processDocument(ctx context.Context, adapter driven.SourceAdapter, limiter *ratelimit.Limiter, doc domain.Document, run *domain.Run) error {
	if err := limiter.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	run.DocumentsDiscovered++

	if s.sanitizer != nil && doc.Content != "" {
		clean, err := s.sanitizer.Sanitize(ctx, doc.Content, sanitize.DefaultOptions())
		if err != nil {
			// Fail open: the original content is kept.
			logger.Warn("runner: sanitising document %s: %v", doc.ID, err)
		}
		doc.Content = clean
	}
	if doc.Content != "" {
		run.DocumentsExtracted++
	}

	if cp := adapter.Checkpoint(); cp != run.Checkpoint {
		if err := s.runs.SaveCheckpoint(ctx, run.ID, cp); err != nil {
			return fmt.Errorf("persisting checkpoint: %w", err)
		}
		run.Checkpoint = cp
	}

	s.queue.Enqueue(doc)
	run.DocumentsIndexed++
	return nil
}

// finalize closes out the run exactly once: counters, completion time,
// terminal status, an error record on failure, and the collection's
// advisory status.
func (s *RunnerService) finalize(ctx context.Context, run *domain.Run, result *driving.RunResult, runErr error) {
	run.CompletedAt = time.Now().UTC()
	if runErr != nil {
		run.Status = domain.RunFailed
	} else {
		run.Status = domain.RunCompleted
	}

	if err := s.runs.Save(ctx, *run); err != nil {
		log.Printf("runner: finalising run %s: %v", run.ID, err)
	}

	if runErr != nil {
		if err := s.runs.RecordError(ctx, domain.RunError{
			RunID:   run.ID,
			Code:    "run_failed",
			Message: runErr.Error(),
		}); err != nil {
			log.Printf("runner: recording error for run %s: %v", run.ID, err)
		}
		run.ErrorCount++
	}

	status := domain.CollectionIdle
	if runErr != nil {
		status = domain.CollectionError
	}
	if err := s.collections.SetStatus(ctx, run.CollectionID, status); err != nil {
		log.Printf("runner: setting status for %s: %v", run.CollectionID, err)
	}

	result.DocumentsDiscovered = run.DocumentsDiscovered
	result.DocumentsExtracted = run.DocumentsExtracted
	result.DocumentsIndexed = run.DocumentsIndexed
	result.ErrorCount = run.ErrorCount

	logger.Info("runner: run %s finalised (%s, %d discovered, %d errors)",
		run.ID, run.Status, run.DocumentsDiscovered, run.ErrorCount)
}
