package testsupport

import (
	"testing"

	"scribe/internal/config"
	"scribe/internal/storage"
)

// MustOpenStorage opens the configured storage backend for tests and
// registers cleanup.
func MustOpenStorage(t testing.TB, cfg *config.Config) storage.Storage {
	t.Helper()

	store, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = storage.Close(store)
	})
	return store
}

// MustSet writes a raw key into storage, failing the test on error.
func MustSet(t testing.TB, store storage.Storage, key, value string) {
	t.Helper()

	if err := store.Set(key, value); err != nil {
		t.Fatalf("storage.Set(%q): %v", key, err)
	}
}

// MustGet reads a raw key from storage, failing the test on error.
func MustGet(t testing.TB, store storage.Storage, key string) (string, bool) {
	t.Helper()

	value, ok, err := store.Get(key)
	if err != nil {
		t.Fatalf("storage.Get(%q): %v", key, err)
	}
	return value, ok
}
