// Package memory provides in-memory storage adapters. Used by service
// tests and available as an ephemeral backend; nothing survives process
// exit.
package memory

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TxRunner = (*Store)(nil)

// Store bundles the in-memory stores behind the transaction port.
// Writes apply immediately; a non-nil error from fn is returned but
// already-applied writes are not undone. Sufficient for service logic
// that only relies on the happy path being atomic.
type Store struct {
	collections *CollectionStore
	runs        *RunStore
}

// NewStore creates an in-memory store bundle.
func NewStore() *Store {
	return &Store{
		collections: NewCollectionStore(),
		runs:        NewRunStore(),
	}
}

// CollectionStore returns the collection store.
func (s *Store) CollectionStore() *CollectionStore {
	return s.collections
}

// RunStore returns the run store.
func (s *Store) RunStore() *RunStore {
	return s.runs
}

// WithTx runs fn against the same underlying stores.
func (s *Store) WithTx(_ context.Context, fn func(st *driven.Stores) error) error {
	return fn(&driven.Stores{
		Collections: s.collections,
		Runs:        s.runs,
	})
}
