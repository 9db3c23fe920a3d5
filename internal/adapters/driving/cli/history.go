package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent transfer history",
	Long:  `Lists the most recent activity transfers, newest first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of transfers to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if historyStore == nil {
		return errors.New("history store not available")
	}

	transfers, err := historyStore.ListTransfers(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list transfers: %w", err)
	}

	if len(transfers) == 0 {
		cmd.Println("No transfers recorded yet.")
		return nil
	}

	cmd.Printf("%-22s %-12s %-10s %10s  %s\n", "START TIME", "ACTIVITY", "OUTCOME", "SIZE", "RECORDED")
	for _, tr := range transfers {
		cmd.Printf("%-22s %-12d %-10s %10s  %s\n",
			tr.StartTime.Format("2006-01-02 15:04:05"),
			tr.ActivityID,
			tr.Outcome,
			formatBytes(tr.Bytes),
			tr.RecordedAt.Format(time.RFC3339),
		)
	}
	return nil
}

// formatBytes renders a byte count for the history table.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
