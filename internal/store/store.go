// Package store persists the filter configuration as a single keyed
// JSON blob under the user's config directory. All reads and writes are
// serialized through one store instance so no partial write is ever
// observable.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spiffcs/reviewdeck/internal/filter"
)

const fileName = "filters.json"

var (
	// ErrNotFound means nothing has been stored yet. Callers start from
	// the empty configuration.
	ErrNotFound = errors.New("no stored filter configuration")

	// ErrCorrupt means stored data exists but cannot be decoded.
	// Callers must wipe the store and reset rather than propagate a
	// partially-decoded value.
	ErrCorrupt = errors.New("stored filter configuration is corrupt")
)

// Store reads and writes the filter configuration blob.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store rooted at the user config directory.
func NewStore() (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(configDir, "reviewdeck")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// NewStoreAt creates a store at an explicit path. Used by tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Save persists the configuration, replacing any previous value.
func (s *Store) Save(cfg filter.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.Version = filter.ConfigVersion
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

// Load returns the stored configuration. ErrNotFound means nothing is
// stored (including a stored blob with an unrecognized future version,
// which is never force-decoded); ErrCorrupt means the blob exists but
// does not decode.
func (s *Store) Load() (filter.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return filter.Configuration{}, ErrNotFound
		}
		return filter.Configuration{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var cfg filter.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return filter.Configuration{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if cfg.Version != filter.ConfigVersion {
		return filter.Configuration{}, ErrNotFound
	}

	// Normalize nil sets from sparse blobs.
	loaded := cfg.Clone()
	return loaded, nil
}

// Clear removes the stored configuration. Clearing an empty store is
// not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
