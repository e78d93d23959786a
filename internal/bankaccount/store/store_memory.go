// Package store persists bank accounts. Verification decisions live in the
// service; stores only read and write records.
package store

import (
	"context"
	"sort"
	"sync"

	"cashout/internal/bankaccount/models"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.BankAccountID]models.BankAccount
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[id.BankAccountID]models.BankAccount)}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.accounts {
		if existing.UserID == a.UserID && existing.BankCode == a.BankCode && existing.AccountNumber == a.AccountNumber {
			return sentinel.ErrConflict
		}
	}
	s.accounts[a.ID] = *a
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, accountID id.BankAccountID) (*models.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := a
	return &copy, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BankAccount
	for _, a := range s.accounts {
		if a.UserID == userID {
			copy := a
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, a *models.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.accounts[a.ID] = *a
	return nil
}
