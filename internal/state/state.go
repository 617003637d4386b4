// Package state persists small pieces of workspace memory between runs, such
// as the directory the last project was created in.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pebble-dev/pebblectl/internal/paths"
)

// State is the persisted workspace state.
type State struct {
	LastPath  string    `yaml:"lastPath,omitempty"`
	UpdatedAt time.Time `yaml:"updatedAt,omitempty"`
}

// Load reads the default state file. A missing or corrupted file yields an
// empty State.
func Load() (*State, error) {
	path, err := paths.StateFile()
	if err != nil {
		return &State{}, nil //nolint:nilerr // graceful: unresolvable path treated as empty state
	}

	return LoadFrom(path)
}

// LoadFrom reads state from path.
func LoadFrom(path string) (*State, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from controlled state directory
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return &State{}, nil //nolint:nilerr // graceful: corrupted state file treated as empty
	}

	return &st, nil
}

// Save writes st to the default state file.
func Save(st *State) error {
	path, err := paths.StateFile()
	if err != nil {
		return fmt.Errorf("resolve state path: %w", err)
	}

	return SaveTo(path, st)
}

// SaveTo writes st to path atomically through a temp file and rename.
func SaveTo(path string, st *State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tmp := tmpFile.Name()
	if _, writeErr := tmpFile.Write(data); writeErr != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmp)

		return fmt.Errorf("write temp state: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp state file: %w", closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		// Windows refuses to rename over an existing file.
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			_ = os.Remove(tmp)
			return fmt.Errorf("remove existing state file: %w", removeErr)
		}

		if retryErr := os.Rename(tmp, path); retryErr != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("replace state file: %w", retryErr)
		}
	}

	return nil
}

// RememberPath records dir as the last used project location and saves.
func RememberPath(dir string) error {
	st, err := Load()
	if err != nil {
		st = &State{}
	}

	st.LastPath = dir
	st.UpdatedAt = time.Now().UTC()

	return Save(st)
}

// LastPathOr returns the remembered path, or fallback when none is stored or
// the stored directory no longer exists.
func (s *State) LastPathOr(fallback string) string {
	if s == nil || s.LastPath == "" {
		return fallback
	}

	if info, err := os.Stat(s.LastPath); err != nil || !info.IsDir() {
		return fallback
	}

	return s.LastPath
}
