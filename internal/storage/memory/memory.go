// Package memory provides an in-memory storage.KV, used by tests and as an
// ephemeral fallback when no database path is configured.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store is a thread-safe in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
	revs    map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string][]byte),
		revs:    make(map[string]int64),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.records[key] = stored
	s.revs[key]++
	return nil
}

func (s *Store) Revisions(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := make(map[string]int64, len(s.revs))
	for k, v := range s.revs {
		revs[k] = v
	}
	return revs, nil
}
