// Package vault implements the authenticated encryption primitive used to
// protect adapter credentials at rest.
//
// Ciphertext blobs are self-describing: each one carries the salt and IV
// used to produce it, so old blobs remain decryptable across key rotation
// as long as the same master key is supplied.
//
// Blob layout (before base64 encoding):
//
//	salt(64) || iv(16) || authTag(16) || encrypted bytes
//
// The encryption key is derived from the master key and the per-blob salt
// with PBKDF2 (100k iterations, SHA-256), so a leaked blob cannot be
// brute-forced against a weak master key alone.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyLength is the required master key length in raw bytes (256 bits).
	KeyLength = 32

	// saltLength is the per-blob KDF salt length.
	saltLength = 64

	// ivLength is the GCM nonce length. 16 bytes, matching the blob format.
	ivLength = 16

	// tagLength is the GCM authentication tag length.
	tagLength = 16

	// kdfIterations is the PBKDF2 iteration count. Deliberately expensive.
	kdfIterations = 100_000

	// minBlobLength is the smallest decodable blob: headers plus empty body.
	minBlobLength = saltLength + ivLength + tagLength
)

// deriveKey derives the encryption key from the master key and salt.
func deriveKey(masterKey, salt []byte) []byte {
	return pbkdf2.Key(masterKey, salt, kdfIterations, KeyLength, sha256.New)
}

// decodeMasterKey decodes and validates a base64 master key.
func decodeMasterKey(masterKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid base64", ErrInvalidKey)
	}
	if len(key) != KeyLength {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKey, KeyLength, len(key))
	}
	return key, nil
}

// Encrypt encrypts plaintext under the base64-encoded master key and
// returns a base64-encoded blob. Each call draws a fresh salt and IV, so
// encrypting the same plaintext twice yields different blobs.
func Encrypt(plaintext []byte, masterKey string) (string, error) {
	key, err := decodeMasterKey(masterKey)
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	gcm, err := newGCM(deriveKey(key, salt))
	if err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext; the blob format wants it
	// between the headers and the body.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	body := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, minBlobLength+len(body))
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, body...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt decrypts a blob produced by Encrypt. It fails with
// ErrAuthenticationFailed if the authentication tag does not verify
// (wrong key, corrupted or tampered blob) and never returns
// partially-decrypted data.
func Decrypt(blob string, masterKey string) ([]byte, error) {
	key, err := decodeMasterKey(masterKey)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: blob is not valid base64", ErrAuthenticationFailed)
	}
	if len(raw) < minBlobLength {
		return nil, fmt.Errorf("%w: blob too short", ErrAuthenticationFailed)
	}

	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : minBlobLength]
	body := raw[minBlobLength:]

	gcm, err := newGCM(deriveKey(key, salt))
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(body)+tagLength)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// GenerateKey returns a fresh random base64-encoded 256-bit master key.
func GenerateKey() (string, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating master key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// IsValidKey reports whether candidate decodes to exactly 32 raw bytes.
func IsValidKey(candidate string) bool {
	key, err := base64.StdEncoding.DecodeString(candidate)
	return err == nil && len(key) == KeyLength
}

// newGCM builds an AES-GCM cipher with the blob format's 16-byte nonce.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
