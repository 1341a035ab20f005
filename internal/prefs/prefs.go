// Package prefs is the key-value preference store: a small TOML file holding
// the user's UI guards and defaults.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Preferences are the user's settings. The zero value is the default for a
// fresh installation.
type Preferences struct {
	DeleteEnabled     bool   `toml:"delete_enabled"`
	EditEnabled       bool   `toml:"edit_enabled"`
	PreferredLanguage string `toml:"preferred_language"`
	HasSeenOnboarding bool   `toml:"has_seen_onboarding"`
}

// Store persists Preferences at a fixed path.
type Store struct {
	path string
}

// NewStore creates a preference store backed by the file at path.
// The file is created lazily on first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the current preferences. A missing file yields the defaults.
func (s *Store) Load() (*Preferences, error) {
	var p Preferences
	if _, err := toml.DecodeFile(s.path, &p); err != nil {
		if os.IsNotExist(err) {
			return &Preferences{}, nil
		}
		return nil, fmt.Errorf("reading preferences from %s: %w", s.path, err)
	}
	return &p, nil
}

// Save writes the preferences, creating the parent directory if needed.
func (s *Store) Save(p *Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating preferences file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("writing preferences to %s: %w", s.path, err)
	}
	return nil
}
