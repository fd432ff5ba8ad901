package driven

import (
	"context"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

// FactStore is the remote knowledge graph. Claims are never edited in
// place; every change is committed as a delta of additions and deletions.
type FactStore interface {
	// GetItem retrieves an item by its remote identifier.
	// Returns domain.ErrNotFound if the item does not exist.
	GetItem(ctx context.Context, id string) (*domain.RemoteItem, error)

	// CreateItem creates a new item and returns it with its assigned identifier.
	CreateItem(ctx context.Context, draft domain.ItemDraft, summary string) (*domain.RemoteItem, error)

	// CommitDelta applies a delta to an item in a single edit.
	CommitDelta(ctx context.Context, itemID string, delta domain.Delta, summary string) error

	// LookupByUniqueLabel finds the single item carrying a label in a language.
	// Returns domain.ErrNotFound when absent and domain.ErrAmbiguousResult
	// when more than one item carries the label.
	LookupByUniqueLabel(ctx context.Context, label, lang string) (string, error)

	// QuerySingle runs a query selecting ?item and returns its identifier.
	// Returns domain.ErrNotFound when the query yields nothing and
	// domain.ErrAmbiguousResult when it yields more than one row.
	QuerySingle(ctx context.Context, query string) (string, error)
}
