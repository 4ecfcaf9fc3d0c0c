package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// SourceAdapter fetches documents from an external source.
// Each adapter kind (gmail, drive, website, ...) implements this interface;
// the core never contains per-source fetch logic itself.
type SourceAdapter interface {
	// Kind returns the adapter kind identifier.
	Kind() string

	// Initialize prepares the adapter for fetching.
	// Returns domain.ErrAdapterConfig if required credentials or
	// settings are absent.
	Initialize(ctx context.Context) error

	// FetchDocuments streams documents from the source. The document
	// channel is closed when the fetch is complete; a terminal failure is
	// sent on the error channel. Each invocation is finite and restartable
	// from the last checkpoint set via SetCheckpoint.
	FetchDocuments(ctx context.Context) (<-chan domain.Document, <-chan error)

	// Checkpoint returns the adapter's current resumption token.
	// The orchestration layer persists it; the adapter must advance it
	// as documents are yielded so a resumed run does not re-fetch them.
	Checkpoint() string

	// SetCheckpoint positions the adapter at a previously persisted token.
	// Called before FetchDocuments when resuming.
	SetCheckpoint(token string)

	// Close releases resources.
	Close() error
}

// AdapterConfig carries everything an adapter factory needs to build
// an adapter for one collection.
type AdapterConfig struct {
	// CollectionID identifies the owning collection.
	CollectionID string

	// Settings is the collection's adapter-specific configuration.
	Settings map[string]any

	// Credentials is the decrypted credential object, or nil if the
	// collection has none.
	Credentials map[string]any

	// Checkpoint is the latest persisted resumption token, or empty.
	Checkpoint string
}

// AdapterFactory creates a source adapter for a collection.
// Returns domain.ErrUnsupportedType for an unknown adapter kind.
type AdapterFactory interface {
	Create(ctx context.Context, kind string, config AdapterConfig) (SourceAdapter, error)
}

// CredentialCipher encrypts and decrypts adapter secrets.
// The ciphertext blob is opaque to every other component.
type CredentialCipher interface {
	// Encrypt serialises and encrypts a credential object.
	// Returns domain.ErrConfiguration if no master key is configured.
	Encrypt(credentials map[string]any) (string, error)

	// Decrypt decrypts a blob produced by Encrypt.
	// Returns domain.ErrCredentialDecrypt if the blob fails
	// authentication, wrapping the underlying cause.
	Decrypt(blob string) (map[string]any, error)

	// Available reports whether a master key is configured.
	Available() bool
}
