package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

// Configuration keys overridden by run flags.
const (
	keyDryRun          = "run.dry_run"
	keySandboxUser     = "run.sandbox_user"
	keyReprocessBefore = "run.reprocess_before"
)

var (
	runDryRun          bool
	runSandboxUser     string
	runReprocessBefore string
)

var runCmd = &cobra.Command{
	Use:   "run <kind> [files...]",
	Short: "Reconcile one object kind with Wikidata",
	Long: `Reads the registry features of an object kind and reconciles each
active object with its Wikidata item and Commons map data.

Kinds: ` + strings.Join(domain.KindNames(), ", ") + `.

Without files the kind's default dataset files are read. Objects that
succeeded after the reprocess cutoff are skipped; failed objects are
retried.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "read everything but write nothing, ledger included")
	runCmd.Flags().StringVar(&runSandboxUser, "sandbox", "", "write map data under Data:Sandbox/<user>/")
	runCmd.Flags().StringVar(&runReprocessBefore, "reprocess-before", "",
		"reprocess objects last succeeded before this instant (RFC 3339 or epoch ms, 0 disables)")
	rootCmd.AddCommand(runCmd)
}

func runOverrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)
	if cmd.Flags().Changed("dry-run") {
		overrides[keyDryRun] = runDryRun
	}
	if cmd.Flags().Changed("sandbox") {
		overrides[keySandboxUser] = runSandboxUser
	}
	if cmd.Flags().Changed("reprocess-before") {
		overrides[keyReprocessBefore] = runReprocessBefore
	}
	return overrides
}

func runRun(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if _, err := domain.KindByName(kind); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := connect(ctx, runOverrides(cmd)); err != nil {
		return err
	}
	if reconciler == nil {
		return errors.New("reconciler not configured")
	}

	cmd.Printf("Reconciling %s...\n", kind)
	report, err := reconciler.Run(ctx, kind, args[1:])
	if report != nil {
		cmd.Printf("Run %s: %d processed, %d failed, %d skipped, %d inactive, %d invalid, %d warnings\n",
			report.RunID, report.Processed, report.Failed, report.Skipped,
			report.Inactive, report.Invalid, report.Warnings)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
