package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
	"scribe/internal/storage"
	"scribe/internal/testsupport"
)

func backends(t *testing.T) map[string]storage.Storage {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := storage.OpenSQLite(filepath.Join(dir, "session.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]storage.Storage{
		"memory": storage.NewMemoryStorage(),
		"file":   storage.NewFileStorage(filepath.Join(dir, "session.json")),
		"sqlite": sqlite,
	}
}

func TestStorageContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Get("auth_token"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := store.Set("auth_token", "abc"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := store.Set("auth_token", "def"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			value, ok, err := store.Get("auth_token")
			if err != nil || !ok || value != "def" {
				t.Fatalf("Get = %q, %v, %v; want def", value, ok, err)
			}

			if err := store.Set("user", `{"id":1}`); err != nil {
				t.Fatalf("Set user: %v", err)
			}
			snap, err := store.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if len(snap) != 2 || snap["user"] != `{"id":1}` {
				t.Fatalf("unexpected snapshot: %v", snap)
			}

			if err := store.Remove("auth_token"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := store.Remove("auth_token"); err != nil {
				t.Fatalf("Remove missing key: %v", err)
			}
			if _, ok, _ := store.Get("auth_token"); ok {
				t.Fatal("expected key removed")
			}
		})
	}
}

func TestFileStoragePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	first := storage.NewFileStorage(path)
	if err := first.Set("auth_token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := storage.NewFileStorage(path)
	value, ok, err := second.Get("auth_token")
	if err != nil || !ok || value != "abc" {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
}

func TestFileStorageReportsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := storage.NewFileStorage(path)
	if _, _, err := store.Get("auth_token"); !errors.Is(err, storage.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
	if err := store.Set("auth_token", "x"); !errors.Is(err, storage.ErrCorruptStore) {
		t.Fatalf("expected Set to refuse overwriting corrupt store, got %v", err)
	}
}

func TestFileStorageTreatsNullFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("null"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := storage.NewFileStorage(path)
	if _, ok, err := store.Get("auth_token"); err != nil || ok {
		t.Fatalf("Get on null file = ok %v, err %v", ok, err)
	}
	if err := store.Set("auth_token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := storage.NewFileStorage(path).Get("auth_token")
	if err != nil || !ok || value != "abc" {
		t.Fatalf("Get after Set = %q, %v, %v", value, ok, err)
	}
}

func TestSQLiteStoragePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	first, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Set("user", `{"id":7}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	value, ok, err := second.Get("user")
	if err != nil || !ok || value != `{"id":7}` {
		t.Fatalf("Get = %q, %v, %v", value, ok, err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cases := []struct {
		backend string
		check   func(storage.Storage) bool
	}{
		{config.StorageMemory, func(s storage.Storage) bool { _, ok := s.(*storage.MemoryStorage); return ok }},
		{config.StorageFile, func(s storage.Storage) bool { _, ok := s.(*storage.FileStorage); return ok }},
		{config.StorageSQLite, func(s storage.Storage) bool { _, ok := s.(*storage.SQLiteStorage); return ok }},
	}
	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithStorageBackend(tc.backend))
			store := testsupport.MustOpenStorage(t, cfg)
			if !tc.check(store) {
				t.Fatalf("unexpected backend type %T", store)
			}
		})
	}
}
