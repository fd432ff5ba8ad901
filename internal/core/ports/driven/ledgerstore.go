package driven

import (
	"context"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

// LedgerStore persists progress ledgers, one per object kind.
type LedgerStore interface {
	// Load retrieves the ledger for a kind. An absent ledger is returned
	// empty, not as an error.
	Load(ctx context.Context, kind string) (*domain.Ledger, error)

	// Save durably replaces the persisted ledger for a kind.
	Save(ctx context.Context, kind string, ledger *domain.Ledger) error
}
