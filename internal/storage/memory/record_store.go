// Package memory stores records in-memory for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Store keeps records in a map. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory record store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Put stores a copy of data under name.
func (s *Store) Put(_ context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("record name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the record. A missing record wraps os.ErrNotExist.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", name, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Exists reports whether name is stored.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[name]
	return ok, nil
}

// List returns the stored names, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
