package vault

import "errors"

var (
	// ErrInvalidKey indicates the master key is not exactly 32 raw bytes
	// after base64 decoding.
	ErrInvalidKey = errors.New("invalid master key")

	// ErrAuthenticationFailed indicates the authentication tag did not
	// verify: the blob was produced under a different key, or was
	// corrupted or tampered with. The cases are indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
