package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [kind...]",
	Short: "Summarise ledger outcomes",
	Long: `Counts outcomes across every object in a kind's progress ledger:
created items and map data, created, modified and deleted claims, warnings
and failures. Without arguments every kind is summarised.

Output is a styled table on a terminal and tab-separated text otherwise.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var (
	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	summaryCount = lipgloss.NewStyle().Width(8).Align(lipgloss.Right).Foreground(lipgloss.Color("#06B6D4"))
	summaryKey   = lipgloss.NewStyle().PaddingLeft(2)
	summaryError = summaryKey.Foreground(lipgloss.Color("#F38BA8"))
	summaryWarn  = summaryKey.Foreground(lipgloss.Color("#F9E2AF"))
)

func runSummary(cmd *cobra.Command, args []string) error {
	kinds := args
	if len(kinds) == 0 {
		kinds = domain.KindNames()
	}
	for _, k := range kinds {
		if _, err := domain.KindByName(k); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if err := connect(ctx, nil); err != nil {
		return err
	}
	if ledgerReporter == nil {
		return errors.New("ledger reporter not configured")
	}

	out := cmd.OutOrStdout()
	styled := isTerminal(out)
	for i, k := range kinds {
		summary, err := ledgerReporter.Summarize(ctx, k)
		if err != nil {
			return fmt.Errorf("summarise %s: %w", k, err)
		}
		if styled {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, renderStyled(summary))
		} else {
			fmt.Fprint(out, renderPlain(summary))
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderPlain writes one "kind<TAB>count<TAB>key" line per counter.
func renderPlain(s *domain.LedgerSummary) string {
	var b []byte
	for _, c := range s.Counters {
		b = append(b, s.Kind...)
		b = append(b, '\t')
		b = strconv.AppendInt(b, int64(c.Count), 10)
		b = append(b, '\t')
		b = append(b, c.Key...)
		b = append(b, '\n')
	}
	return string(b)
}

func renderStyled(s *domain.LedgerSummary) string {
	lines := []string{summaryTitle.Render(fmt.Sprintf("%s (%d objects)", s.Kind, s.Objects))}
	if len(s.Counters) == 0 {
		lines = append(lines, summaryKey.Render("ledger is empty"))
	}
	for _, c := range s.Counters {
		style := summaryKey
		switch c.Key {
		case "Failed to process":
			style = summaryError
		case "Has warnings":
			style = summaryWarn
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			summaryCount.Render(strconv.Itoa(c.Count)),
			style.Render(c.Key)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}
