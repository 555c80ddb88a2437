// Package memory is a process-local store, used for demos and tests.
package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	"ledger/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	saves int
	// FailSave, when set, is returned by the next Save calls.
	FailSave error
}

var _ store.Store = (*Store)(nil)

func New(seed []core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), seed...)}
}

func (s *Store) Load(_ context.Context) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Snapshot{Transactions: append([]core.Transaction(nil), s.items...)}, nil
}

func (s *Store) Save(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.items = append([]core.Transaction(nil), txs...)
	s.saves++
	return nil
}

// Saves reports how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
