package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the cache as one JSON object on disk. The file is read
// once at open and rewritten in full after every Put. Only one process may
// write a given file; concurrent writers lose each other's entries.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// OpenFileStore loads path. A missing file is an empty cache; a file that is
// not a JSON object of strings is an error.
func OpenFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path, entries: make(map[string]string)}
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(payload) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(payload, &store.entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	if store.entries == nil {
		store.entries = make(map[string]string)
	}
	return store, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements summarizer.CacheStore.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

// Put stores value and flushes the whole cache before returning.
func (s *FileStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, existed := s.entries[key]
	s.entries[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Clear empties the cache and truncates the file to an empty object.
func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
	return s.flush()
}

func (s *FileStore) flush() error {
	payload, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
