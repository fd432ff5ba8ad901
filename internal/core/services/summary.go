package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driving"
)

// Ensure LedgerSummaryService implements the interface.
var _ driving.LedgerReporter = (*LedgerSummaryService)(nil)

// Summary counter keys.
const (
	counterProcessed       = "Item processed"
	counterFailed          = "Failed to process"
	counterCreatedItem     = "Created Wikidata item"
	counterCreatedGeoshape = "Created Commons geoshape"
	counterUpdatedGeoshape = "Updated Commons geoshape"
	counterWarnings        = "Has warnings"
)

// LedgerSummaryService counts outcomes recorded in persisted ledgers.
type LedgerSummaryService struct {
	ledgers driven.LedgerStore
}

// NewLedgerSummaryService creates a new summary service.
func NewLedgerSummaryService(ledgers driven.LedgerStore) *LedgerSummaryService {
	return &LedgerSummaryService{ledgers: ledgers}
}

// Summarize loads a kind's ledger and counts its outcomes.
func (s *LedgerSummaryService) Summarize(ctx context.Context, kindName string) (*domain.LedgerSummary, error) {
	kind, err := domain.KindByName(kindName)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.Load(ctx, kind.LedgerName)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	summary := Summarize(ledger)
	summary.Kind = kind.Name
	return summary, nil
}

// Summarize counts, per object, every outcome found anywhere in its entry
// chain. Each object contributes at most one to each counter, except
// "Failed to process" which only looks at the latest entry.
func Summarize(ledger *domain.Ledger) *domain.LedgerSummary {
	counts := make(map[string]int)
	for _, latest := range ledger.Processed {
		keys := make(map[string]struct{})
		if latest.Failed() {
			keys[counterFailed] = struct{}{}
		}
		for e := latest; e != nil; e = e.PreviousExecution {
			if e.CreatedWikidata {
				keys[counterCreatedItem] = struct{}{}
			}
			if e.CreatedCommonsGeoshape {
				keys[counterCreatedGeoshape] = struct{}{}
			}
			if e.UpdatedCommonsGeoshape {
				keys[counterUpdatedGeoshape] = struct{}{}
			}
			if len(e.Warnings) > 0 {
				keys[counterWarnings] = struct{}{}
			}
			for _, c := range e.CreatedClaims {
				keys["Created claim "+c] = struct{}{}
			}
			for _, c := range e.ModifiedClaims {
				keys["Modified claim "+c] = struct{}{}
			}
			for _, c := range e.DeletedClaims {
				keys["Deleted claim "+c] = struct{}{}
			}
		}
		for k := range keys {
			counts[k]++
		}
		counts[counterProcessed]++
	}

	summary := &domain.LedgerSummary{Objects: len(ledger.Processed)}
	for k, n := range counts {
		summary.Counters = append(summary.Counters, domain.Counter{Key: k, Count: n})
	}
	sort.Slice(summary.Counters, func(i, j int) bool {
		a, b := summary.Counters[i], summary.Counters[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
	return summary
}
