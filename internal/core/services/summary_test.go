package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/storage/memory"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

func summaryLedger() *domain.Ledger {
	ledger := domain.NewLedger()

	// Created in one run, updated in the next.
	first := ledger.Open("run-1", "1", day(2020, 1, 1))
	first.CreatedWikidata = true
	first.CreatedCommonsGeoshape = true
	first.Created("country")
	first.Created("area")
	ledger.Commit(first, 0)
	second := ledger.Open("run-2", "1", day(2020, 2, 1))
	second.Modified("area")
	second.Created("country")
	ledger.Commit(second, 0)

	// Failed after an earlier success.
	ok := ledger.Open("run-1", "2", day(2020, 1, 1))
	ok.Created("country")
	ok.Warn("Unknown operator %q", "X")
	ledger.Commit(ok, 0)
	failed := ledger.Open("run-2", "2", day(2020, 2, 1))
	failed.Error = "boom"
	ledger.Commit(failed, 0)

	// Failed once, then recovered.
	bad := ledger.Open("run-1", "3", day(2020, 1, 1))
	bad.Error = "boom"
	ledger.Commit(bad, 0)
	good := ledger.Open("run-2", "3", day(2020, 2, 1))
	good.UpdatedCommonsGeoshape = true
	good.Deleted("area land")
	ledger.Commit(good, 0)

	return ledger
}

func TestSummarize(t *testing.T) {
	summary := Summarize(summaryLedger())

	assert.Equal(t, 3, summary.Objects)
	assert.Equal(t, []domain.Counter{
		{Key: "Item processed", Count: 3},
		{Key: "Created claim country", Count: 2},
		{Key: "Created Commons geoshape", Count: 1},
		{Key: "Created Wikidata item", Count: 1},
		{Key: "Created claim area", Count: 1},
		{Key: "Deleted claim area land", Count: 1},
		{Key: "Failed to process", Count: 1},
		{Key: "Has warnings", Count: 1},
		{Key: "Modified claim area", Count: 1},
		{Key: "Updated Commons geoshape", Count: 1},
	}, summary.Counters)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(domain.NewLedger())
	assert.Equal(t, 0, summary.Objects)
	assert.Empty(t, summary.Counters)
}

func TestLedgerSummaryService_Summarize(t *testing.T) {
	ctx := context.Background()
	ledgers := memory.NewLedgerStore()
	require.NoError(t, ledgers.Save(ctx, domain.NationalPark.LedgerName, summaryLedger()))
	service := NewLedgerSummaryService(ledgers)

	summary, err := service.Summarize(ctx, domain.NationalPark.Name)
	require.NoError(t, err)
	assert.Equal(t, domain.NationalPark.Name, summary.Kind)
	assert.Equal(t, 3, summary.Objects)

	empty, err := service.Summarize(ctx, domain.NatureReserve.Name)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Objects)

	_, err = service.Summarize(ctx, "volcano")
	assert.True(t, errors.Is(err, domain.ErrUnknownKind))
}
