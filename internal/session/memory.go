// Package session provides SessionStore backends that keep the session
// in process memory or in a per-profile file on disk.
package session

import (
	"context"
	"sync"

	"attractions-web/internal/domain"
)

// MemoryStore keeps the session keys in a map. It does not survive restarts.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Save(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return domain.ErrIncompleteSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = session.Values()
	return nil
}

func (s *MemoryStore) Read(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := domain.SessionFromValues(s.values)
	if !ok {
		s.values = make(map[string]string)
		return domain.Session{}, nil
	}
	return session, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// set writes a single raw key; tests use it to simulate partial state.
func (s *MemoryStore) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
