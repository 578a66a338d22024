package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
// A single mutex serializes all transactions, which trivially satisfies the
// per-document atomicity contract.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]Account
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[uuid.UUID]Account)}
}

// Get retrieves an account by ID.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

// Transact executes fn under the store lock and persists the result.
func (s *MemoryStore) Transact(ctx context.Context, id uuid.UUID, fn TransactFunc) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[id]
	if !ok {
		current = NewAccount(id)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	next.ID = id
	next.UpdatedAt = time.Now().UTC()
	s.accounts[id] = next

	return &next, nil
}
