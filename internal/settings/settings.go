// Package settings is the process-wide key-value store for client-side
// state: the API base URL, feature flags, and the session token written
// after a successful login.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	// KeyAuthToken holds the opaque session token issued by the login API.
	KeyAuthToken = "forever.authToken"
	// KeyAPILocation holds the base URL the client posts against.
	KeyAPILocation = "api_location"
)

// Store holds string settings with write-through persistence. A value
// written by Set is visible to every subsequent Get in the same process;
// when the store is file-backed, it is also durable across processes.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewMemory returns a store without a backing file. Used in tests and by
// commands that must not touch the filesystem.
func NewMemory() *Store {
	return &Store{values: map[string]string{}}
}

// Open loads the store backed by the JSON file at path, creating state in
// memory if the file does not exist yet. The file is only created on the
// first Set.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	if s.path == "" {
		return nil
	}
	return s.flushLocked()
}

// flushLocked writes the full value map via a temp file rename so a crashed
// write never truncates existing settings.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("settings: create %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("settings: rename %s: %w", tmp, err)
	}
	return nil
}
