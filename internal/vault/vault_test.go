package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple", "hello world"},
		{"empty", ""},
		{"json", `{"token":"secret-value","refresh":"another"}`},
		{"unicode", "pässwörd éè 世界"},
		{"binary-ish", string([]byte{0, 1, 2, 255, 254})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Encrypt([]byte(tt.plaintext), key)
			require.NoError(t, err)

			plaintext, err := Decrypt(blob, key)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(plaintext))
		})
	}
}

func TestEncrypt_FreshSaltAndIV(t *testing.T) {
	key := testKey(t)

	first, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)
	second, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)

	// Fresh salt and IV per call: identical plaintext, different blobs.
	assert.NotEqual(t, first, second)
}

func TestDecrypt_WrongKey(t *testing.T) {
	blob, err := Encrypt([]byte("secret"), testKey(t))
	require.NoError(t, err)

	_, err = Decrypt(blob, testKey(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDecrypt_TamperedBlob(t *testing.T) {
	key := testKey(t)
	blob, err := Encrypt([]byte("tamper target"), key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flip one byte in every region of the blob. Decryption must fail
	// with an authentication error, never return wrong plaintext.
	offsets := map[string]int{
		"salt": 10,
		"iv":   saltLength + 3,
		"tag":  saltLength + ivLength + 5,
		"body": minBlobLength,
	}
	for region, offset := range offsets {
		t.Run(region, func(t *testing.T) {
			tampered := make([]byte, len(raw))
			copy(tampered, raw)
			tampered[offset] ^= 0xFF

			_, err := Decrypt(base64.StdEncoding.EncodeToString(tampered), key)
			assert.ErrorIs(t, err, ErrAuthenticationFailed)
		})
	}
}

func TestDecrypt_TruncatedBlob(t *testing.T) {
	_, err := Decrypt(base64.StdEncoding.EncodeToString(make([]byte, 32)), testKey(t))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDecrypt_NotBase64(t *testing.T) {
	_, err := Decrypt("not-base64!!!", testKey(t))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestMasterKeyValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"too long", base64.StdEncoding.EncodeToString(make([]byte, 48))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encrypt([]byte("x"), tt.key)
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, err = Decrypt("irrelevant", tt.key)
			assert.ErrorIs(t, err, ErrInvalidKey)

			assert.False(t, IsValidKey(tt.key))
		})
	}
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.True(t, IsValidKey(key))

	raw, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, KeyLength)

	// Keys must be random.
	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
