package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of driven.LedgerStore.
// Ledgers are held serialised so that loads never alias saved state.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string][]byte
	saves   int

	// SaveErr, when set, fails every save.
	SaveErr error
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[string][]byte),
	}
}

// Load returns the ledger for a kind, empty when never saved.
func (s *LedgerStore) Load(_ context.Context, kind string) (*domain.Ledger, error) {
	s.mu.RLock()
	data, ok := s.ledgers[kind]
	s.mu.RUnlock()
	if !ok {
		return domain.NewLedger(), nil
	}
	ledger := domain.NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", kind, err)
	}
	return ledger, nil
}

// Save replaces the ledger for a kind.
func (s *LedgerStore) Save(_ context.Context, kind string, ledger *domain.Ledger) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", kind, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[kind] = data
	s.saves++
	return nil
}

// Saves returns the number of successful saves.
func (s *LedgerStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
