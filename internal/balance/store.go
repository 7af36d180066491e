// Package balance holds the native balance of the connected wallet.
package balance

import (
	"sync"
	"time"

	"github.com/AlexZinkM/belpy-mint/internal/common"
	"github.com/AlexZinkM/belpy-mint/internal/model"
)

// Reader is the read capability handed to consumers of the balance.
type Reader interface {
	Snapshot() model.Balance
}

// Store is the process-wide balance value. Set is its only mutator and
// replaces the value wholesale.
type Store struct {
	mu      sync.RWMutex
	current model.Balance
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		current: model.Balance{SOL: common.LamportsToSOL(0)},
		now:     time.Now,
	}
}

// Set replaces the stored balance. An empty address resets it.
func (s *Store) Set(address string, lamports uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address == "" {
		lamports = 0
	}
	s.current = model.Balance{
		Address:   address,
		Lamports:  lamports,
		SOL:       common.LamportsToSOL(lamports),
		UpdatedAt: s.now(),
	}
}

// Snapshot returns a copy of the stored balance.
func (s *Store) Snapshot() model.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
