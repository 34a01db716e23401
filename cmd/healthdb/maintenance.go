// ABOUTME: CLI commands for whole-database maintenance.
// ABOUTME: clear empties the store; backup and restore copy the database file.
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all records, workouts, sources, and types",
	Long: `Delete all data from the database. The schema is kept, so the next ingest
starts from an empty store.

CAUTION:

  This permanently deletes everything. Take a backup first if unsure:
    healthdb backup ~/health-backup.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if !clearYes {
			fmt.Fprintf(out, "Delete all data in %s? [y/N] ", store.Path())
			response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && response == "" {
				return fmt.Errorf("failed to read response: %w", err)
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if err := store.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
		amber.Fprintln(out, "✗ Cleared all data")
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <dst>",
	Short: "Copy the database to a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Backup(cmd.Context(), args[0]); err != nil {
			return err
		}
		green.Fprintf(cmd.OutOrStdout(), "✓ Backed up to %s\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <src>",
	Short: "Replace the database with a backup file",
	Long: `Replace the database with a file written by 'healthdb backup'.

The backup is checked for a SQLite header before anything is touched.
Current data is overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Restore(cmd.Context(), args[0]); err != nil {
			return err
		}
		green.Fprintf(cmd.OutOrStdout(), "✓ Restored from %s\n", args[0])
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
