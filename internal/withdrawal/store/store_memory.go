// Package store persists withdrawal requests. Stores are pure I/O; the
// lifecycle rules live in the service and the aggregate.
package store

import (
	"context"
	"sync"

	"cashout/internal/withdrawal/models"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.WithdrawalID]models.WithdrawalRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.WithdrawalID]models.WithdrawalRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, w *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[w.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[w.ID] = *w
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, withdrawalID id.WithdrawalID) (*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.requests[withdrawalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := w
	return &copy, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WithdrawalRequest
	for _, w := range s.requests {
		if w.UserID == userID {
			copy := w
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WithdrawalRequest
	for _, w := range s.requests {
		if w.Status == status {
			copy := w
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByAccountAndStatus(_ context.Context, accountID id.BankAccountID, status models.Status) ([]*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WithdrawalRequest
	for _, w := range s.requests {
		if w.BankAccountID == accountID && w.Status == status {
			copy := w
			out = append(out, &copy)
		}
	}
	return out, nil
}

// UpdateIfStatus writes the request back only when the stored status still
// equals expected. This is the serialization point for concurrent admin
// actions: of two simultaneous transitions from the same state, exactly one
// sees expected and wins.
func (s *InMemoryStore) UpdateIfStatus(_ context.Context, w *models.WithdrawalRequest, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[w.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrStateMismatch
	}
	s.requests[w.ID] = *w
	return nil
}
