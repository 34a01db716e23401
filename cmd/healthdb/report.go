// ABOUTME: CLI command for exporting report documents.
// ABOUTME: Writes the store overview or an aggregate series as JSON or YAML.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/analytics"
	"github.com/harperreed/healthdb/internal/storage"
)

var (
	reportFormat      string
	reportOutput      string
	reportType        string
	reportFrom        string
	reportTo          string
	reportGranularity string
)

// reportWriter is implemented by analytics.Report and analytics.SeriesReport.
type reportWriter interface {
	WriteJSON(w io.Writer) error
	WriteYAML(w io.Writer) error
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a report for charts or pages",
	Long: `Export a machine-readable report.

Without --type the report is the store overview: stats plus the record type
and source directories. With --type it is an aggregate series for that type.

EXAMPLES:

  healthdb report                                  # Overview as JSON
  healthdb report --format yaml -o overview.yaml
  healthdb report --type HKQuantityTypeIdentifierHeartRate \
      --from 2024-01-01 --to 2024-12-31 --granularity week -o hr.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(reportFormat)
		if reportOutput != "" && !cmd.Flags().Changed("format") {
			switch strings.ToLower(filepath.Ext(reportOutput)) {
			case ".yaml", ".yml":
				format = "yaml"
			}
		}
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format: %s (use json or yaml)", reportFormat)
		}

		svc := analytics.New(store)
		var doc reportWriter
		if reportType == "" {
			r, err := svc.Overview(cmd.Context())
			if err != nil {
				return err
			}
			doc = r
		} else {
			g, err := storage.ParseGranularity(reportGranularity)
			if err != nil {
				return err
			}
			from, err := parseDay("from", reportFrom)
			if err != nil {
				return err
			}
			to, err := parseDay("to", reportTo)
			if err != nil {
				return err
			}
			r, err := svc.Series(cmd.Context(), reportType, from, to, g)
			if err != nil {
				return err
			}
			doc = r
		}

		w := cmd.OutOrStdout()
		if reportOutput != "" {
			f, err := os.OpenFile(reportOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer f.Close()
			w = f
		}

		var err error
		if format == "yaml" {
			err = doc.WriteYAML(w)
		} else {
			err = doc.WriteJSON(w)
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if reportOutput != "" {
			green.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", reportOutput)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "json", "json or yaml")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default: stdout)")
	reportCmd.Flags().StringVarP(&reportType, "type", "t", "", "record type for a series report")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day of the series (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day of the series, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportGranularity, "granularity", "day", "day, week, or month")
	rootCmd.AddCommand(reportCmd)
}
