package driving

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// NewCollection carries the input for creating a collection.
type NewCollection struct {
	// Name is the human-readable label. Required.
	Name string

	// Adapter is the connector kind. Required.
	Adapter string

	// Credentials is the plaintext credential object, encrypted before
	// storage. Optional.
	Credentials map[string]any

	// Settings is adapter-specific configuration. Optional.
	Settings map[string]any

	// Schedule is a cron-style trigger expression. Optional;
	// empty means manual-only.
	Schedule string

	// Metadata is free-form annotation. Optional.
	Metadata map[string]any

	// Enabled controls scheduling. Defaults to true at the CLI surface.
	Enabled bool
}

// CollectionRegistry provides CRUD over collections.
type CollectionRegistry interface {
	// Create validates and stores a new collection, encrypting credentials
	// if provided. Returns the full record with generated ID and timestamps.
	// Returns domain.ErrValidation if name or adapter is missing.
	Create(ctx context.Context, input NewCollection) (*domain.Collection, error)

	// Get retrieves a collection by ID. Returns nil and no error if absent.
	Get(ctx context.Context, id string) (*domain.Collection, error)

	// GetByName retrieves a collection by name. Returns nil and no error if absent.
	GetByName(ctx context.Context, name string) (*domain.Collection, error)

	// List returns collections matching the filter, newest-created-first.
	List(ctx context.Context, filter domain.CollectionFilter) ([]domain.Collection, error)

	// Update applies a partial patch. Only supplied fields are modified;
	// credentials in the patch are re-encrypted. An empty patch returns
	// the existing record unchanged, UpdatedAt included.
	// Returns domain.ErrNotFound if the ID is absent.
	Update(ctx context.Context, id string, patch domain.CollectionPatch) (*domain.Collection, error)

	// Delete removes a collection and cascades its runs and errors.
	// Returns domain.ErrNotFound if the ID is absent.
	Delete(ctx context.Context, id string) error

	// GetCredentials decrypts and returns the collection's credential
	// object. Returns nil and no error if the collection has no stored
	// credentials. Returns domain.ErrNotFound if the collection is absent.
	GetCredentials(ctx context.Context, id string) (map[string]any, error)
}
