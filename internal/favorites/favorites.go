// Package favorites persists the user's named output directories as a small
// TOML file mapping label to path. The file is loaded at startup and saved
// on every mutation.
package favorites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"markerq/internal/config"
	"markerq/internal/services"
)

// Entry is one favorite output directory.
type Entry struct {
	Label string
	Path  string
}

// Store holds the favorites mapping and writes it back on mutation.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

type fileFormat struct {
	Favorites map[string]string `toml:"favorites"`
}

// Load reads the favorites file at path. A missing file yields an empty
// store; the file is created on the first mutation.
func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "favorites", "resolve path", "favorites path not configured", nil)
	}

	store := &Store{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "favorites", "read file", "cannot read favorites file", err)
	}

	var parsed fileFormat
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "favorites", "parse file", fmt.Sprintf("invalid favorites file %s", path), err)
	}
	for label, dir := range parsed.Favorites {
		label = strings.TrimSpace(label)
		dir = strings.TrimSpace(dir)
		if label == "" || dir == "" {
			continue
		}
		store.entries[label] = dir
	}
	return store, nil
}

// List returns all favorites sorted by label.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.entries))
	for label, dir := range s.entries {
		entries = append(entries, Entry{Label: label, Path: dir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries
}

// Resolve looks up a favorite by label.
func (s *Store) Resolve(label string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.entries[strings.TrimSpace(label)]
	return dir, ok
}

// Add stores or replaces a favorite and saves the file.
func (s *Store) Add(label, dir string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return services.Wrap(services.ErrValidation, "favorites", "validate label", "favorite label required", nil)
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return services.Wrap(services.ErrValidation, "favorites", "expand path", "cannot expand favorite path", err)
	}
	if strings.TrimSpace(expanded) == "" {
		return services.Wrap(services.ErrValidation, "favorites", "validate path", "favorite path required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[label] = expanded
	return s.saveLocked()
}

// Remove deletes a favorite by label and saves the file. It reports whether
// the label existed.
func (s *Store) Remove(label string) (bool, error) {
	label = strings.TrimSpace(label)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[label]; !ok {
		return false, nil
	}
	delete(s.entries, label)
	return true, s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := toml.Marshal(fileFormat{Favorites: s.entries})
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "favorites", "encode file", "cannot encode favorites file", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "favorites", "ensure directory", "cannot create favorites directory", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrFilesystem, "favorites", "write file", "cannot write favorites file", err)
	}
	return nil
}
