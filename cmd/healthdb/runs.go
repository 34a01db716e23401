// ABOUTME: CLI command for listing ingestion runs.
// ABOUTME: Shows when each run happened and what it wrote.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/models"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := store.ListIngestRuns(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No ingestion runs found.")
			return nil
		}

		for _, r := range runs {
			status := green.Sprint("ok")
			if r.Error != nil {
				status = amber.Sprintf("failed: %s", truncate(*r.Error, 60))
			}
			fmt.Fprintf(out, "%s %s +%d records +%d workouts %d dup %d skipped %d rejected  %s\n",
				faint.Sprint(r.ID.String()[:8]),
				faint.Sprint(models.FormatTime(r.StartedAt)),
				r.Records, r.Workouts, r.Duplicates, r.Skipped, r.Rejected,
				status)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "max number of runs")
	rootCmd.AddCommand(runsCmd)
}
