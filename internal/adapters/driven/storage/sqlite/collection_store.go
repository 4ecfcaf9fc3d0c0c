package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// collectionStore implements driven.CollectionStore.
type collectionStore struct {
	conn conn
}

var _ driven.CollectionStore = (*collectionStore)(nil)

const collectionColumns = `id, name, adapter, enabled, credentials_encrypted,
	settings, schedule, metadata, status, created_at, updated_at`

// Save stores or updates a collection.
func (s *collectionStore) Save(ctx context.Context, collection domain.Collection) error {
	settingsJSON, err := json.Marshal(orEmpty(collection.Settings))
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}
	metadataJSON, err := json.Marshal(orEmpty(collection.Metadata))
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	if collection.UpdatedAt.IsZero() {
		collection.UpdatedAt = now
	}
	if collection.Status == "" {
		collection.Status = domain.CollectionConfigured
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO collections (id, name, adapter, enabled, credentials_encrypted,
			settings, schedule, metadata, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			adapter = excluded.adapter,
			enabled = excluded.enabled,
			credentials_encrypted = excluded.credentials_encrypted,
			settings = excluded.settings,
			schedule = excluded.schedule,
			metadata = excluded.metadata,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, collection.ID, collection.Name, collection.Adapter, boolToInt(collection.Enabled),
		nullString(collection.CredentialsEncrypted), string(settingsJSON),
		nullString(collection.Schedule), string(metadataJSON), string(collection.Status),
		collection.CreatedAt, collection.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// Get retrieves a collection by ID.
func (s *collectionStore) Get(ctx context.Context, id string) (*domain.Collection, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+collectionColumns+` FROM collections WHERE id = ?
	`, id)
	return scanCollection(row)
}

// GetByName retrieves a collection by name.
func (s *collectionStore) GetByName(ctx context.Context, name string) (*domain.Collection, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+collectionColumns+` FROM collections WHERE name = ?
	`, name)
	return scanCollection(row)
}

// List returns collections matching the filter, newest-created-first.
func (s *collectionStore) List(ctx context.Context, filter domain.CollectionFilter) ([]domain.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE 1=1`
	var params []any

	if filter.Adapter != nil {
		query += " AND adapter = ?"
		params = append(params, *filter.Adapter)
	}
	if filter.Enabled != nil {
		query += " AND enabled = ?"
		params = append(params, boolToInt(*filter.Enabled))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection //nolint:prealloc // size unknown from query
	for rows.Next() {
		collection, err := scanCollectionRows(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *collection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}

	return collections, nil
}

// Delete removes a collection.
func (s *collectionStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// SetStatus updates only the advisory status of a collection.
func (s *collectionStore) SetStatus(ctx context.Context, id string, status domain.CollectionStatus) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE collections SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating collection status: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row *sql.Row) (*domain.Collection, error) {
	collection, err := scanCollectionFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return collection, err
}

func scanCollectionRows(rows *sql.Rows) (*domain.Collection, error) {
	return scanCollectionFields(rows)
}

func scanCollectionFields(scanner rowScanner) (*domain.Collection, error) {
	var collection domain.Collection
	var enabled int
	var credentials, schedule sql.NullString
	var settingsJSON, metadataJSON, status string
	var createdAt, updatedAt sql.NullTime

	if err := scanner.Scan(&collection.ID, &collection.Name, &collection.Adapter,
		&enabled, &credentials, &settingsJSON, &schedule, &metadataJSON,
		&status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	collection.Enabled = enabled != 0
	collection.CredentialsEncrypted = credentials.String
	collection.Schedule = schedule.String
	collection.Status = domain.CollectionStatus(status)
	if createdAt.Valid {
		collection.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		collection.UpdatedAt = updatedAt.Time
	}

	if err := json.Unmarshal([]byte(settingsJSON), &collection.Settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &collection.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	return &collection, nil
}

// orEmpty substitutes an empty map for nil so stored JSON is always an object.
func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
