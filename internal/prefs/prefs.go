// Package prefs stores the selected culture per synchronization key.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps preferences in a YAML file mapping keys to cultures.
// The file is read on every Load so that edits by other processes are seen.
type FileStore struct {
	path string
	lock sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Path() string { return s.path }

// Load returns the culture stored for key. A missing file is empty.
func (s *FileStore) Load(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Save stores culture for key, replacing the file atomically.
func (s *FileStore) Save(key, culture string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	if v, ok := m[key]; ok && v == culture {
		return nil
	}
	m[key] = culture
	return s.write(m)
}

// All returns all stored preferences.
func (s *FileStore) All() (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing preferences %s: %w", s.path, err)
	}
	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return fmt.Errorf("setting mode of preferences: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), s.path)
}

// MemoryStore keeps preferences in memory.
type MemoryStore struct {
	lock sync.Mutex
	m    map[string]string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{m: map[string]string{}} }

func (s *MemoryStore) Load(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Save(key, culture string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.m[key] = culture
	return nil
}

func (s *MemoryStore) All() (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return maps.Clone(s.m), nil
}
