package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store keeps preferences per user in one YAML file. The file is read once at
// open and rewritten after every change.
type Store struct {
	path string

	mu    sync.RWMutex
	users map[string]Preferences
}

type document struct {
	Users map[string]Preferences `yaml:"users"`
}

// Open loads path; a missing file starts empty. An empty path keeps
// preferences in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]Preferences)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	for user, prefs := range doc.Users {
		if prefs.Validate() != nil {
			prefs = Defaults()
		}
		s.users[user] = prefs
	}
	return s, nil
}

// Get returns the saved preferences of user or the defaults.
func (s *Store) Get(user string) Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if prefs, ok := s.users[user]; ok {
		return prefs
	}
	return Defaults()
}

// Update applies u to user's preferences and persists the file.
func (s *Store) Update(user string, u Update) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user]
	if !ok {
		current = Defaults()
	}
	next, err := u.Apply(current)
	if err != nil {
		return current, err
	}
	s.users[user] = next
	if err := s.writeLocked(); err != nil {
		s.users[user] = current
		return current, err
	}
	return next, nil
}

func (s *Store) writeLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(document{Users: s.users})
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
