package file

import (
	"os"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Config keys recognised in config.toml.
const (
	KeyDataDir          = "storage.data_dir"
	KeyEncryptionKey    = "security.encryption_key"
	KeySanitizeEndpoint = "sanitize.endpoint"
	KeyQueueSize        = "queue.max_size"
)

// Environment overrides. Each takes precedence over its config key.
const (
	EnvDBPath           = "HARVEST_DB_PATH"
	EnvEncryptionKey    = "HARVEST_ENCRYPTION_KEY"
	EnvSanitizeEndpoint = "HARVEST_SANITIZE_ENDPOINT"
)

// Settings holds the resolved runtime configuration.
type Settings struct {
	// DataDir is the directory holding the sqlite database.
	// Empty means the store's default location.
	DataDir string

	// EncryptionKey is the base64 master key for the credential vault.
	// Empty means credential operations are unavailable.
	EncryptionKey string

	// SanitizeEndpoint is the content sanitisation service URL.
	SanitizeEndpoint string

	// QueueSize bounds the document queue. Zero means the default.
	QueueSize int
}

// ResolveSettings reads the effective settings from the config store,
// applying environment overrides.
func ResolveSettings(cfg driven.ConfigStore) Settings {
	s := Settings{
		DataDir:          cfg.GetString(KeyDataDir),
		EncryptionKey:    cfg.GetString(KeyEncryptionKey),
		SanitizeEndpoint: cfg.GetString(KeySanitizeEndpoint),
		QueueSize:        cfg.GetInt(KeyQueueSize),
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		s.DataDir = v
	}
	if v := os.Getenv(EnvEncryptionKey); v != "" {
		s.EncryptionKey = v
	}
	if v := os.Getenv(EnvSanitizeEndpoint); v != "" {
		s.SanitizeEndpoint = v
	}

	return s
}
