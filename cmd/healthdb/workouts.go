// ABOUTME: CLI command for listing workouts of a type.
// ABOUTME: Shows duration, distance, and energy for the newest sessions.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/models"
)

var workoutsLimit int

var workoutsCmd = &cobra.Command{
	Use:     "workouts <type>",
	Aliases: []string{"w"},
	Short:   "List workouts of a type",
	Long: `List the newest workouts of one activity type.

EXAMPLES:

  healthdb workouts HKWorkoutActivityTypeRunning
  healthdb workouts HKWorkoutActivityTypeYoga -n 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := analytics.New(store).WorkoutsByType(cmd.Context(), args[0], workoutsLimit)
		if err != nil {
			return fmt.Errorf("failed to list workouts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No workouts found.")
			return nil
		}

		for _, w := range rows {
			extra := ""
			if w.TotalDistance != nil {
				extra += fmt.Sprintf("  %s %s", formatValue(*w.TotalDistance), optString(w.TotalDistanceUnit))
			}
			if w.TotalEnergyBurned != nil {
				extra += fmt.Sprintf("  %s %s", formatValue(*w.TotalEnergyBurned), optString(w.TotalEnergyBurnedUnit))
			}
			fmt.Fprintf(out, "%s %s %s%s\n",
				faint.Sprint(models.FormatTime(w.StartDate)),
				padRight(fmt.Sprintf("%s %s", formatValue(w.Duration), w.DurationUnit), 14),
				faint.Sprint(truncate(w.Source, 30)),
				extra)
		}
		return nil
	},
}

func init() {
	workoutsCmd.Flags().IntVarP(&workoutsLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(workoutsCmd)
}
