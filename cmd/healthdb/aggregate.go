// ABOUTME: CLI commands for daily, weekly, and monthly aggregates.
// ABOUTME: Prints mean, min, max, and count per bucket over an inclusive date range.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/storage"
)

// newAggregateCmd builds one aggregate command. window returns the default
// --from for a given --to.
func newAggregateCmd(g storage.Granularity, use, short string, window func(time.Time) time.Time) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   use + " <type>",
		Short: short,
		Long: short + `.

--from and --to are inclusive calendar days. --to defaults to today and
--from to a window ending at --to. Weeks start on Monday.

EXAMPLES:

  healthdb ` + use + ` HKQuantityTypeIdentifierHeartRate
  healthdb ` + use + ` HKQuantityTypeIdentifierStepCount --from 2024-01-01 --to 2024-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := today()
			if to != "" {
				var err error
				if end, err = parseDay("to", to); err != nil {
					return err
				}
			}
			start := window(end)
			if from != "" {
				var err error
				if start, err = parseDay("from", from); err != nil {
					return err
				}
			}

			buckets, err := analytics.New(store).Aggregate(cmd.Context(), args[0], start, end, g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(buckets) == 0 {
				fmt.Fprintf(out, "No %s records between %s and %s.\n",
					args[0], start.Format("2006-01-02"), end.Format("2006-01-02"))
				return nil
			}

			bold.Fprintf(out, "%s  %10s %10s %10s %8s\n", padRight("date", 10), "mean", "min", "max", "count")
			for _, b := range buckets {
				fmt.Fprintf(out, "%s  %10.2f %10.2f %10.2f %8d\n",
					b.Date.Format("2006-01-02"), b.Mean, b.Min, b.Max, b.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day, inclusive (YYYY-MM-DD, default today)")
	return cmd
}

var (
	dailyCmd = newAggregateCmd(storage.Day, "daily", "Daily aggregates of a record type",
		func(t time.Time) time.Time { return t.AddDate(0, 0, -29) })
	weeklyCmd = newAggregateCmd(storage.Week, "weekly", "Weekly aggregates of a record type",
		func(t time.Time) time.Time { return t.AddDate(0, 0, -7*12+1) })
	monthlyCmd = newAggregateCmd(storage.Month, "monthly", "Monthly aggregates of a record type",
		func(t time.Time) time.Time { return t.AddDate(-1, 0, 1) })
)

func init() {
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(monthlyCmd)
}
