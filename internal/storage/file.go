package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"scribe/internal/fileutil"
)

// FileStorage persists all keys as a single JSON object. Writes replace the
// file atomically and an advisory lock file serializes access across
// processes sharing the same state directory.
type FileStorage struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFileStorage builds a FileStorage rooted at path. The file is created on
// first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file location.
func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.withLock(false, func() error {
		values, err := s.load()
		if err != nil {
			return err
		}
		value, ok = values[key]
		return nil
	})
	return value, ok, err
}

func (s *FileStorage) Set(key, value string) error {
	return s.withLock(true, func() error {
		values, err := s.load()
		if err != nil {
			return err
		}
		values[key] = value
		return s.save(values)
	})
}

func (s *FileStorage) Remove(key string) error {
	return s.withLock(true, func() error {
		values, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return s.save(values)
	})
}

func (s *FileStorage) Snapshot() (map[string]string, error) {
	var out map[string]string
	err := s.withLock(false, func() error {
		values, err := s.load()
		if err != nil {
			return err
		}
		out = values
		return nil
	})
	return out, err
}

func (s *FileStorage) withLock(exclusive bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure storage directory: %w", err)
	}

	var err error
	if exclusive {
		err = s.lock.Lock()
	} else {
		err = s.lock.RLock()
	}
	if err != nil {
		return fmt.Errorf("acquire storage lock: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	return fn()
}

// load reads the store. A missing or empty file, or a JSON null, resolves to
// an empty map.
func (s *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func (s *FileStorage) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage file: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	return nil
}
