package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
)

// Store provides serialized read-modify-write access to settings.json.
//
// The DOA processor polls this file and may kick off a recalibration on any
// observed change, so the store only ever writes when a mutation actually
// changed a value, and always writes atomically (temp file + rename) so the
// processor can never read a truncated document.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the settings.json at path. The file is owned
// by the DOA processor and must already exist; the store never creates it.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings.json path.
func (s *Store) Path() string {
	return s.path
}

// Read loads and parses the current document.
func (s *Store) Read() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Apply runs a read-modify-write transaction. Concurrent Apply calls are
// serialized; each one sees the previous one's result. If the mutation
// returns an error, or produces a document equal to the current one, nothing
// is written.
func (s *Store) Apply(mutate Mutation) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return nil, err
	}

	updated, err := mutate(current.Clone())
	if err != nil {
		return nil, err
	}

	// Unchanged document: skip the write so the DOA processor does not see a
	// spurious change event and recalibrate for nothing.
	if reflect.DeepEqual(current, updated) {
		return updated, nil
	}

	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// write replaces settings.json atomically. The DOA processor writes the file
// with four-space indentation; match it so hand inspection diffs cleanly.
func (s *Store) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
