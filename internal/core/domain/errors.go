package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a CRUD call received incomplete or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidInput indicates malformed or invalid input, such as a master
	// key that is not exactly 32 bytes after base64 decoding.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates required configuration is missing.
	// Credential operations fail with this when no master key is set.
	ErrConfiguration = errors.New("configuration error")

	// ErrCredentialDecrypt wraps a vault authentication failure for
	// credential callers. Callers must not assume the cause is a wrong
	// key versus corrupted storage.
	ErrCredentialDecrypt = errors.New("credential decrypt failed")

	// ErrAdapterConfig indicates an adapter is missing required
	// credentials or settings.
	ErrAdapterConfig = errors.New("adapter configuration invalid")

	// ErrUnsupportedType indicates an unknown adapter kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnsatisfiable indicates a rate limiter was asked for more tokens
	// than its bucket can ever hold.
	ErrUnsatisfiable = errors.New("request exceeds bucket capacity")

	// ErrRunInProgress indicates a run is already active for the collection.
	ErrRunInProgress = errors.New("run in progress")

	// ErrRateLimited indicates token acquisition against a source's rate
	// limit failed.
	ErrRateLimited = errors.New("rate limited")
)
