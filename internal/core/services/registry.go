package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Ensure RegistryService implements the interface.
var _ driving.CollectionRegistry = (*RegistryService)(nil)

// RegistryService manages collection configurations. It composes the
// persistent store with the credential cipher: callers hand it plaintext
// credentials and only ever get plaintext back; the stored blob stays
// opaque to everyone else.
type RegistryService struct {
	collections driven.CollectionStore
	tx          driven.TxRunner
	cipher      driven.CredentialCipher
}

// NewRegistryService creates a collection registry.
func NewRegistryService(
	collections driven.CollectionStore,
	tx driven.TxRunner,
	cipher driven.CredentialCipher,
) *RegistryService {
	return &RegistryService{
		collections: collections,
		tx:          tx,
		cipher:      cipher,
	}
}

// Create validates and stores a new collection.
func (s *RegistryService) Create(ctx context.Context, input driving.NewCollection) (*domain.Collection, error) {
	if input.Name == "" || input.Adapter == "" {
		return nil, fmt.Errorf("%w: name and adapter are required", domain.ErrValidation)
	}

	var encrypted string
	if input.Credentials != nil {
		blob, err := s.cipher.Encrypt(input.Credentials)
		if err != nil {
			return nil, fmt.Errorf("encrypting credentials: %w", err)
		}
		encrypted = blob
	}

	now := time.Now().UTC()
	collection := domain.Collection{
		ID:                   uuid.NewString(),
		Name:                 input.Name,
		Adapter:              input.Adapter,
		Enabled:              input.Enabled,
		CredentialsEncrypted: encrypted,
		Settings:             input.Settings,
		Schedule:             input.Schedule,
		Metadata:             input.Metadata,
		Status:               domain.CollectionConfigured,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.collections.Save(ctx, collection); err != nil {
		return nil, fmt.Errorf("saving collection: %w", err)
	}

	logger.Debug("registry: created collection %s (%s/%s)", collection.ID, collection.Name, collection.Adapter)
	return s.get(ctx, collection.ID)
}

// Get retrieves a collection by ID. Returns nil and no error if absent.
func (s *RegistryService) Get(ctx context.Context, id string) (*domain.Collection, error) {
	collection, err := s.collections.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return collection, err
}

// GetByName retrieves a collection by name. Returns nil and no error if absent.
func (s *RegistryService) GetByName(ctx context.Context, name string) (*domain.Collection, error) {
	collection, err := s.collections.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return collection, err
}

// List returns collections matching the filter, newest-created-first.
func (s *RegistryService) List(ctx context.Context, filter domain.CollectionFilter) ([]domain.Collection, error) {
	return s.collections.List(ctx, filter)
}

// Update applies a partial patch. Only supplied fields are modified;
// an empty patch returns the existing record unchanged, UpdatedAt included.
func (s *RegistryService) Update(ctx context.Context, id string, patch domain.CollectionPatch) (*domain.Collection, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return existing, nil
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		existing.Name = *patch.Name
	}
	if patch.Enabled != nil {
		existing.Enabled = *patch.Enabled
	}
	if patch.Credentials != nil {
		blob, err := s.cipher.Encrypt(patch.Credentials)
		if err != nil {
			return nil, fmt.Errorf("encrypting credentials: %w", err)
		}
		existing.CredentialsEncrypted = blob
	} else if patch.ClearCredentials {
		existing.CredentialsEncrypted = ""
	}
	if patch.Settings != nil {
		existing.Settings = patch.Settings
	}
	if patch.Schedule != nil {
		existing.Schedule = *patch.Schedule
	}
	if patch.Metadata != nil {
		existing.Metadata = patch.Metadata
	}
	if patch.Status != nil {
		existing.Status = *patch.Status
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.collections.Save(ctx, *existing); err != nil {
		return nil, fmt.Errorf("updating collection: %w", err)
	}

	logger.Debug("registry: updated collection %s", id)
	return s.get(ctx, id)
}

// Delete removes a collection and cascades its runs and errors in one
// transaction: history dies with the collection, no orphans survive.
func (s *RegistryService) Delete(ctx context.Context, id string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(st *driven.Stores) error {
		if err := st.Runs.DeleteByCollection(ctx, id); err != nil {
			return err
		}
		return st.Collections.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	logger.Debug("registry: deleted collection %s (%s)", id, existing.Name)
	return nil
}

// GetCredentials decrypts and returns the collection's credential object.
// Returns nil and no error if the collection has no stored credentials.
func (s *RegistryService) GetCredentials(ctx context.Context, id string) (map[string]any, error) {
	collection, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !collection.HasCredentials() {
		return nil, nil
	}
	return s.cipher.Decrypt(collection.CredentialsEncrypted)
}

// get is the internal lookup: absence is an ErrNotFound, not a nil record.
func (s *RegistryService) get(ctx context.Context, id string) (*domain.Collection, error) {
	collection, err := s.collections.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return collection, nil
}
