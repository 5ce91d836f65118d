package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/lotas/tabgruppen/internal/types"
)

// Store persists the whole PersistedState document as a single JSON file.
// Every Save replaces the file atomically (write to temp, then rename), so
// readers never observe a half-written document.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a Store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultStatePath returns the default state file path:
// ~/.local/share/tabgruppen/state.json
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tabgruppen", "state.json"), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state. A missing file is not an error: it
// returns an empty state, which is what a fresh install looks like.
func (s *Store) Load() (*types.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &types.PersistedState{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st types.PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return &st, nil
}

// Save replaces the entire document in one atomic write.
func (s *Store) Save(st *types.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
