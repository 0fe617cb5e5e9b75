// Package memory provides in-process implementations of the session store
// and artifact cache. They are the defaults for the CLI and for tests;
// deployments that need persistence or sharing across replicas use the
// redis adapters instead.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// Store keeps session states in a map. Safe for concurrent use. States are
// deep-copied through JSON on the way in and out so callers can never
// mutate stored data through a shared pointer.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewStore() *Store {
	return &Store{sessions: make(map[string][]byte)}
}

func (s *Store) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = data
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}
