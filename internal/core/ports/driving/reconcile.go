package driving

import (
	"context"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

// Reconciler runs one reconciliation batch for an object kind.
type Reconciler interface {
	// Run processes every feature of the given files in order. When files
	// is empty the kind's default files are used. Per-object failures are
	// recorded in the ledger and do not fail the run.
	Run(ctx context.Context, kind string, files []string) (*RunReport, error)
}

// RunReport summarises one batch.
type RunReport struct {
	// RunID identifies the batch in ledger entries.
	RunID string

	// Processed is the number of objects reconciled, including failures.
	Processed int

	// Failed is the number of objects whose entry recorded an error.
	Failed int

	// Skipped is the number of objects skipped by the ledger.
	Skipped int

	// Inactive is the number of features whose status is not in force.
	Inactive int

	// Invalid is the number of features without an identifier.
	Invalid int

	// Warnings is the total number of warnings recorded.
	Warnings int
}

// LedgerReporter derives outcome summaries from persisted ledgers.
type LedgerReporter interface {
	// Summarize counts outcomes across every object in a kind's ledger.
	Summarize(ctx context.Context, kind string) (*domain.LedgerSummary, error)
}
