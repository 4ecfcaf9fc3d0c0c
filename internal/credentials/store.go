// Package credentials encrypts and decrypts adapter secrets using the
// vault and a process-wide master key. The master key comes from
// configuration and is never persisted by this package.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/vault"
)

// Ensure Store implements the port.
var _ driven.CredentialCipher = (*Store)(nil)

// Store encrypts credential objects for storage and decrypts them for runs.
type Store struct {
	masterKey string
}

// NewStore creates a credential store with the given base64 master key.
// An empty key is allowed at construction; credential-bearing operations
// will fail with domain.ErrConfiguration until one is set.
func NewStore(masterKey string) *Store {
	return &Store{masterKey: masterKey}
}

// Available reports whether a master key is configured.
func (s *Store) Available() bool {
	return s.masterKey != ""
}

// Encrypt serialises the credential object to canonical JSON and encrypts
// it into an opaque blob.
func (s *Store) Encrypt(creds map[string]any) (string, error) {
	if creds == nil {
		return "", fmt.Errorf("%w: credentials required", domain.ErrInvalidInput)
	}
	if !s.Available() {
		return "", fmt.Errorf("%w: no encryption master key configured", domain.ErrConfiguration)
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("serialising credentials: %w", err)
	}

	blob, err := vault.Encrypt(plaintext, s.masterKey)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidKey) {
			return "", fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return "", fmt.Errorf("encrypting credentials: %w", err)
	}
	return blob, nil
}

// Decrypt decrypts a blob produced by Encrypt. A vault authentication
// failure is wrapped in domain.ErrCredentialDecrypt: the caller cannot
// tell a wrong key from corrupted storage, and plaintext is never
// partially returned.
func (s *Store) Decrypt(blob string) (map[string]any, error) {
	if blob == "" {
		return nil, fmt.Errorf("%w: encrypted credentials required", domain.ErrInvalidInput)
	}
	if !s.Available() {
		return nil, fmt.Errorf("%w: no encryption master key configured", domain.ErrConfiguration)
	}

	plaintext, err := vault.Decrypt(blob, s.masterKey)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCredentialDecrypt, err)
	}

	var creds map[string]any
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("%w: stored credentials are not valid JSON", domain.ErrCredentialDecrypt)
	}
	return creds, nil
}
