package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKVStore implements KVStore with one file per key under a state
// directory. This was the original persistence backend; it remains available
// for tests and for installs that have not yet migrated to SQLite.
type FileKVStore struct {
	dir string
}

// NewFileKVStore returns a FileKVStore rooted at dir. The directory is
// created lazily on first write.
func NewFileKVStore(dir string) *FileKVStore {
	return &FileKVStore{dir: dir}
}

func (s *FileKVStore) path(key string) string {
	// Keys are fixed identifiers chosen by this codebase, but never trust
	// them as raw path segments.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Get returns the stored value for key, or false if the key is absent.
func (s *FileKVStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading state file for %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *FileKVStore) Set(key, value string) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(s.path(key), []byte(value), 0600); err != nil {
		return fmt.Errorf("writing state file for %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *FileKVStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file for %q: %w", key, err)
	}
	return nil
}
