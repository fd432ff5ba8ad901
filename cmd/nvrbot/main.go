// Command nvrbot reconciles the Swedish protected-area registry with
// Wikidata items and Commons map data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/config/file"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/config/layered"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/dataset"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/ratelimit"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/reftables"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/storage/jsonfile"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/storage/memory"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/storage/sqlite"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/wikibase"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driving/cli"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/services"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx, build); err != nil {
		stop()
		os.Exit(1)
	}
}

// build wires the adapters into the services for one invocation.
func build(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	// 1. Configuration: flag overrides in front of the config file
	fileStore, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	overrides := memory.NewConfigStore()
	for k, v := range opts.Overrides {
		overrides.Set(k, v)
	}
	settings, err := services.NewSettingsService(layered.NewConfigStore(overrides, fileStore)).Get()
	if err != nil {
		return nil, fmt.Errorf("read settings from %s: %w", fileStore.Path(), err)
	}
	logger.Debug("Config %s, ledger %s (%s), dry run %t",
		fileStore.Path(), settings.LedgerDir, settings.LedgerBackend, settings.DryRun)

	// 2. Ledger persistence
	ledgers, closeLedger, err := openLedger(settings)
	if err != nil {
		return nil, err
	}

	// 3. Remote stores, throttled on writes
	api := wikibase.NewClient(ctx, wikibase.Config{
		Endpoint:    settings.WikidataAPI,
		AccessToken: settings.AccessToken,
		UserAgent:   settings.UserAgent,
	})
	commons := wikibase.NewClient(ctx, wikibase.Config{
		Endpoint:    settings.CommonsAPI,
		AccessToken: settings.AccessToken,
		UserAgent:   settings.UserAgent,
	})
	query := wikibase.NewQueryService(settings.SPARQLEndpoint, settings.UserAgent, api.HTTPClient())
	limiter := ratelimit.NewLimiter(settings.EditsPerMinute)
	facts := ratelimit.NewFactStore(wikibase.NewFactStore(api, query), limiter)
	docs := ratelimit.NewDocumentStore(wikibase.NewDocumentStore(commons), limiter)

	// 4. Services
	orchestrator := services.NewReconciliationOrchestrator(
		facts, docs, ledgers, dataset.NewReader(), reftables.NewLoader(), settings,
	)
	return &cli.Services{
		Reconciler: orchestrator,
		Reporter:   services.NewLedgerSummaryService(ledgers),
		Close:      closeLedger,
	}, nil
}

func openLedger(settings domain.Settings) (driven.LedgerStore, func() error, error) {
	switch settings.LedgerBackend {
	case domain.LedgerSQLite:
		store, err := sqlite.NewStore(settings.LedgerDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger database: %w", err)
		}
		return store.LedgerStore(), store.Close, nil
	default:
		store, err := jsonfile.NewLedgerStore(settings.LedgerDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger directory: %w", err)
		}
		return store, nil, nil
	}
}
