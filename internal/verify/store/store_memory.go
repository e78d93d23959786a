// Package store records which users currently hold a Matched real-name
// result. The withdrawal module reads it through a port; the orchestrator is
// the only writer.
package store

import (
	"context"
	"sync"
	"time"

	id "cashout/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	matched map[id.UserID]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matched: make(map[id.UserID]time.Time)}
}

func (s *InMemoryStore) RecordMatched(_ context.Context, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matched[userID] = at
	return nil
}

func (s *InMemoryStore) IsMatched(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.matched[userID]
	return ok, nil
}

// Clear drops a user's Matched record, e.g. when a new account cycle starts.
func (s *InMemoryStore) Clear(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matched, userID)
	return nil
}
