// ABOUTME: CLI commands for listing raw records.
// ABOUTME: records lists the newest of a type; range lists an inclusive date window.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/models"
)

var (
	recordsType  string
	recordsLimit int

	rangeFrom string
	rangeTo   string
	rangeType string
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"ls"},
	Short:   "List the newest records of a type",
	Long: `List the newest records of one record type, newest first.

EXAMPLES:

  healthdb records --type HKQuantityTypeIdentifierHeartRate
  healthdb records -t HKQuantityTypeIdentifierStepCount -n 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recordsType == "" {
			return fmt.Errorf("--type is required")
		}
		records, err := store.RecordsByType(cmd.Context(), recordsType, recordsLimit)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		printRecords(cmd.OutOrStdout(), records, false)
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "List records between two dates",
	Long: `List records whose start falls on or between two calendar days, oldest first.

EXAMPLES:

  healthdb range --from 2024-01-01 --to 2024-01-07
  healthdb range --from 2024-01-01 --to 2024-01-01 --type HKQuantityTypeIdentifierHeartRate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay("from", rangeFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", rangeTo)
		if err != nil {
			return err
		}
		start := models.StartOfDay(from)
		end := models.StartOfDay(to).AddDate(0, 0, 1)
		if !start.Before(end) {
			return fmt.Errorf("--from must not be after --to")
		}

		var recordType *string
		if rangeType != "" {
			recordType = &rangeType
		}
		records, err := store.RecordsInRange(cmd.Context(), start, end, recordType)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		printRecords(cmd.OutOrStdout(), records, recordType == nil)
		return nil
	},
}

func printRecords(w io.Writer, records []*models.Record, showType bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}
	for _, r := range records {
		typeCol := ""
		if showType {
			typeCol = padRight(truncate(r.RecordType, 40), 40) + " "
		}
		fmt.Fprintf(w, "%s %s%s %s %s\n",
			faint.Sprint(models.FormatTime(r.StartDate)),
			typeCol,
			padRight(formatValue(r.Value), 10),
			padRight(optString(r.Unit), 10),
			faint.Sprint(truncate(r.Source, 30)))
	}
}

func init() {
	recordsCmd.Flags().StringVarP(&recordsType, "type", "t", "", "record type (required)")
	recordsCmd.Flags().IntVarP(&recordsLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(recordsCmd)

	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "first day (YYYY-MM-DD)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "last day, inclusive (YYYY-MM-DD)")
	rangeCmd.Flags().StringVarP(&rangeType, "type", "t", "", "filter by record type")
	rootCmd.AddCommand(rangeCmd)
}
