package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	conn conn
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, collection_id, started_at, completed_at, status,
	documents_discovered, documents_extracted, documents_indexed, error_count, checkpoint`

// Save stores or updates a run.
func (s *runStore) Save(ctx context.Context, run domain.Run) error {
	if run.ID == "" || run.CollectionID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, collection_id, started_at, completed_at, status,
			documents_discovered, documents_extracted, documents_indexed, error_count, checkpoint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			completed_at = excluded.completed_at,
			status = excluded.status,
			documents_discovered = excluded.documents_discovered,
			documents_extracted = excluded.documents_extracted,
			documents_indexed = excluded.documents_indexed,
			error_count = excluded.error_count,
			checkpoint = excluded.checkpoint
	`, run.ID, run.CollectionID, run.StartedAt, nullTime(run.CompletedAt), string(run.Status),
		run.DocumentsDiscovered, run.DocumentsExtracted, run.DocumentsIndexed,
		run.ErrorCount, nullString(run.Checkpoint))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

// ListByCollection returns runs for a collection, most recent first.
func (s *runStore) ListByCollection(ctx context.Context, collectionID string, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE collection_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, collectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// SaveCheckpoint durably persists the run's resumption token.
func (s *runStore) SaveCheckpoint(ctx context.Context, runID, checkpoint string) error {
	result, err := s.conn.ExecContext(ctx,
		"UPDATE runs SET checkpoint = ? WHERE id = ?", nullString(checkpoint), runID)
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordError attaches a failure record to a run and increments the
// run's error counter.
func (s *runStore) RecordError(ctx context.Context, runErr domain.RunError) error {
	if runErr.RunID == "" {
		return domain.ErrInvalidInput
	}
	if runErr.ID == "" {
		runErr.ID = uuid.NewString()
	}
	if runErr.OccurredAt.IsZero() {
		runErr.OccurredAt = time.Now().UTC()
	}

	detailsJSON, err := json.Marshal(orEmpty(runErr.Details))
	if err != nil {
		return fmt.Errorf("marshalling error details: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO run_errors (id, run_id, code, message, details, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runErr.ID, runErr.RunID, runErr.Code, runErr.Message, string(detailsJSON), runErr.OccurredAt)
	if err != nil {
		return fmt.Errorf("recording run error: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		"UPDATE runs SET error_count = error_count + 1 WHERE id = ?", runErr.RunID)
	if err != nil {
		return fmt.Errorf("incrementing run error count: %w", err)
	}
	return nil
}

// ListErrors returns error records for a run, oldest first.
func (s *runStore) ListErrors(ctx context.Context, runID string) ([]domain.RunError, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, run_id, code, message, details, occurred_at
		FROM run_errors WHERE run_id = ?
		ORDER BY occurred_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run errors: %w", err)
	}
	defer rows.Close()

	var runErrors []domain.RunError //nolint:prealloc // size unknown from query
	for rows.Next() {
		var runErr domain.RunError
		var detailsJSON sql.NullString
		var occurredAt sql.NullTime
		if err := rows.Scan(&runErr.ID, &runErr.RunID, &runErr.Code, &runErr.Message,
			&detailsJSON, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning run error: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &runErr.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling error details: %w", err)
			}
		}
		if occurredAt.Valid {
			runErr.OccurredAt = occurredAt.Time
		}
		runErrors = append(runErrors, runErr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run errors: %w", err)
	}
	return runErrors, nil
}

// DeleteByCollection removes all runs and their errors for a collection.
func (s *runStore) DeleteByCollection(ctx context.Context, collectionID string) error {
	_, err := s.conn.ExecContext(ctx, `
		DELETE FROM run_errors WHERE run_id IN
			(SELECT id FROM runs WHERE collection_id = ?)
	`, collectionID)
	if err != nil {
		return fmt.Errorf("deleting run errors: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, "DELETE FROM runs WHERE collection_id = ?", collectionID)
	if err != nil {
		return fmt.Errorf("deleting runs: %w", err)
	}
	return nil
}

// ReconcileStale finalises runs left running by an unclean shutdown.
// Each is marked failed with an interrupted error record; its checkpoint
// is left intact so the next run resumes from the last durable cursor.
func (s *runStore) ReconcileStale(ctx context.Context) (int, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id FROM runs WHERE status = ?", string(domain.RunRunning))
	if err != nil {
		return 0, fmt.Errorf("querying stale runs: %w", err)
	}
	defer rows.Close()

	var staleIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scanning stale run: %w", err)
		}
		staleIDs = append(staleIDs, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating stale runs: %w", err)
	}

	now := time.Now().UTC()
	for _, id := range staleIDs {
		_, err := s.conn.ExecContext(ctx, `
			UPDATE runs SET status = ?, completed_at = ? WHERE id = ?
		`, string(domain.RunFailed), now, id)
		if err != nil {
			return 0, fmt.Errorf("finalising stale run %s: %w", id, err)
		}

		if err := s.RecordError(ctx, domain.RunError{
			RunID:      id,
			Code:       "interrupted",
			Message:    "run was interrupted by process shutdown",
			OccurredAt: now,
		}); err != nil {
			return 0, err
		}
	}

	return len(staleIDs), nil
}

func scanRun(scanner rowScanner) (*domain.Run, error) {
	var run domain.Run
	var completedAt sql.NullTime
	var checkpoint sql.NullString
	var status string

	if err := scanner.Scan(&run.ID, &run.CollectionID, &run.StartedAt, &completedAt,
		&status, &run.DocumentsDiscovered, &run.DocumentsExtracted,
		&run.DocumentsIndexed, &run.ErrorCount, &checkpoint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	run.Checkpoint = checkpoint.String
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}
