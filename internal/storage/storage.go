package storage

import (
	"errors"
	"fmt"

	"scribe/internal/config"
)

// ErrCorruptStore indicates the backing file exists but cannot be decoded.
var ErrCorruptStore = errors.New("storage: corrupt store")

// Storage is a flat string key/value store that survives process restarts.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Snapshot() (map[string]string, error)
}

// Open selects and opens the backend named by cfg.Storage.Backend.
func Open(cfg *config.Config) (Storage, error) {
	if cfg == nil {
		return nil, errors.New("storage: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StorageSQLite:
		return OpenSQLite(cfg.StoragePath())
	case config.StorageFile, "":
		return NewFileStorage(cfg.StoragePath()), nil
	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", cfg.Storage.Backend)
	}
}

// Close releases resources held by s when the backend owns any.
func Close(s Storage) error {
	if closer, ok := s.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
