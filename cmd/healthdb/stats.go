// ABOUTME: CLI commands for store overview: stats, types, and sources.
// ABOUTME: Prints whole-store counts and the type and source directories.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := analytics.New(store).Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		bold.Fprintln(out, "Database statistics")
		fmt.Fprintf(out, "  %s %d\n", padRight("records", 14), stats.TotalRecords)
		fmt.Fprintf(out, "  %s %d\n", padRight("workouts", 14), stats.TotalWorkouts)
		fmt.Fprintf(out, "  %s %d\n", padRight("sources", 14), stats.TotalSources)
		fmt.Fprintf(out, "  %s %d\n", padRight("record types", 14), stats.TotalRecordTypes)
		fmt.Fprintf(out, "  %s %s\n", padRight("first record", 14), optTime(stats.FirstRecord))
		fmt.Fprintf(out, "  %s %s\n", padRight("last record", 14), optTime(stats.LastRecord))
		faint.Fprintf(out, "  %s\n", store.Path())
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List record types grouped by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := analytics.New(store).RecordTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list record types: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(types) == 0 {
			fmt.Fprintln(out, "No record types found.")
			return nil
		}

		sort.SliceStable(types, func(i, j int) bool {
			return types[i].Category < types[j].Category
		})

		var current models.Category
		for i, t := range types {
			if i == 0 || t.Category != current {
				current = t.Category
				if i > 0 {
					fmt.Fprintln(out)
				}
				bold.Fprintln(out, current)
			}
			fmt.Fprintf(out, "  %s %8d  %s\n",
				padRight(truncate(t.TypeName, 48), 48),
				t.Count,
				faint.Sprintf("%s .. %s", optTime(t.FirstRecord), optTime(t.LastRecord)))
		}
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List data sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := analytics.New(store).Sources(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sources) == 0 {
			fmt.Fprintln(out, "No sources found.")
			return nil
		}

		for _, s := range sources {
			device := ""
			if s.Device != nil {
				device = faint.Sprintf(" (%s)", truncate(*s.Device, 40))
			}
			fmt.Fprintf(out, "%s %8d  %s%s\n",
				padRight(truncate(s.Name, 32), 32),
				s.Count,
				faint.Sprintf("%s .. %s", optTime(&s.FirstSeen), optTime(&s.LastSeen)),
				device)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(sourcesCmd)
}
