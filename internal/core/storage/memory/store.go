// Package memory is an in-process storage.Store used when no database is
// configured and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aevon-lab/tally/internal/core/storage"
)

type Store struct {
	mu    sync.RWMutex
	slots map[string]storage.State
}

func NewStore() *Store {
	return &Store{slots: make(map[string]storage.State)}
}

func (s *Store) Get(_ context.Context, key string) (storage.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.slots[key]
	if !ok {
		return storage.State{}, storage.ErrNotFound
	}
	return st, nil
}

func (s *Store) Set(_ context.Context, key string, value any, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = storage.State{Key: key, Value: value, TS: ts}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, key)
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]storage.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.State
	for key, st := range s.slots {
		if strings.HasPrefix(key, prefix) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len is the number of stored slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
