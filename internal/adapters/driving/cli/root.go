// Package cli provides the cobra commands of the nvrbot binary.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driving"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// Options are the resolved global flags handed to a Factory.
type Options struct {
	// ConfigPath is the --config flag. Empty means the default location.
	ConfigPath string

	// Overrides are configuration keys set by command flags. They take
	// precedence over the configuration file.
	Overrides map[string]any
}

// Services are the driving ports the commands call.
type Services struct {
	Reconciler driving.Reconciler
	Reporter   driving.LedgerReporter

	// Close releases the ledger store. May be nil.
	Close func() error
}

// Factory builds the services once the command line has been parsed.
type Factory func(ctx context.Context, opts Options) (*Services, error)

var (
	version = "dev"

	configPath string
	verbose    bool

	factory Factory
	closer  func() error

	// Driving ports. Built by the factory, or swapped in by tests.
	reconciler     driving.Reconciler
	ledgerReporter driving.LedgerReporter
)

var rootCmd = &cobra.Command{
	Use:   "nvrbot",
	Short: "Reconcile Naturvårdsregistret protected areas with Wikidata",
	Long: `nvrbot keeps Wikidata items and Commons map data in step with the
Swedish protected-area registry (Naturvårdsregistret).

Each run reads the registry's GeoJSON export for one object kind, computes
the claims that differ from Wikidata, commits them, and records every
object's outcome in a progress ledger so that interrupted runs resume.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.nvrbot/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress for every object")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the command line. Services are built lazily by f, so
// commands that need none (version, help) work without configuration.
func Execute(ctx context.Context, f Factory) error {
	factory = f
	defer func() {
		if closer != nil {
			if err := closer(); err != nil {
				logger.Error("close: %v", err)
			}
			closer = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// connect builds the services through the factory. Without a factory the
// package-level ports are used as they are.
func connect(ctx context.Context, overrides map[string]any) error {
	if factory == nil {
		return nil
	}
	svc, err := factory(ctx, Options{ConfigPath: configPath, Overrides: overrides})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	if svc == nil {
		return errors.New("initialise: factory returned no services")
	}
	reconciler = svc.Reconciler
	ledgerReporter = svc.Reporter
	closer = svc.Close
	return nil
}
