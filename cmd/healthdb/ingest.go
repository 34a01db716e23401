// ABOUTME: CLI command for ingesting a health export.
// ABOUTME: Runs the ingestion pipeline and prints the run summary.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/healthdb/internal/ingest"
	"github.com/harperreed/healthdb/internal/validate"
)

var (
	ingestReset     bool
	ingestBatchSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest a health export",
	Long: `Ingest a decompressed health export into the database.

<path> may be the export directory (the document is located inside it,
preferring export.xml) or the XML document itself.

Running ingest again on the same export adds nothing: records already stored
are counted as duplicates. Interrupting with Ctrl-C stops between batches and
leaves the database consistent.

WHAT GETS COUNTED:

  records      new records written
  workouts     new workouts written
  duplicates   already stored, left as first seen
  skipped      unusable entries (missing or non-numeric value, bad date)
  rejected     entries failing the validation rules
  filtered     excluded by exclude_types / exclude_sources
  ignored      entries that are not records or workouts

EXAMPLES:

  healthdb ingest ~/Downloads/apple_health_export
  healthdb ingest export.xml --reset       # Start from an empty database
  healthdb ingest export.xml --batch-size 2000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []validate.Option
		if rules := cfg.GetRulesPath(); rules != "" {
			opts = append(opts, validate.WithRuleSetFile(rules))
		}
		v, err := validate.New(opts...)
		if err != nil {
			return err
		}

		batch := cfg.BatchSize
		if ingestBatchSize > 0 {
			batch = ingestBatchSize
		}

		p, err := ingest.New(store, v, logger, ingest.Options{
			BatchSize:      batch,
			Reset:          ingestReset,
			ExcludeTypes:   cfg.ExcludeTypes,
			ExcludeSources: cfg.ExcludeSources,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, runErr := p.Run(ctx, args[0])
		if summary != nil {
			printSummary(cmd.OutOrStdout(), summary, runErr == nil)
		}
		if runErr != nil {
			return fmt.Errorf("ingest failed: %w", runErr)
		}
		return nil
	},
}

func printSummary(w io.Writer, s *ingest.Summary, ok bool) {
	if ok {
		green.Fprintf(w, "✓ Ingested %s\n", s.Path)
	} else {
		amber.Fprintf(w, "✗ Ingest of %s stopped\n", s.Path)
	}

	rows := []struct {
		label string
		n     int
	}{
		{"entries", s.Entries},
		{"records", s.Records},
		{"workouts", s.Workouts},
		{"duplicates", s.Duplicates},
		{"skipped", s.Skipped},
		{"rejected", s.Rejected},
		{"filtered", s.Filtered},
		{"ignored", s.Ignored},
		{"malformed", s.ElementErrors},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %d\n", padRight(r.label, 12), r.n)
	}

	reasons := make(map[string]int)
	for k, n := range s.SkipReasons {
		reasons["skip:"+string(k)] += n
	}
	for k, n := range s.RejectReasons {
		reasons["reject:"+string(k)] += n
	}
	if len(reasons) > 0 {
		keys := make([]string, 0, len(reasons))
		for k := range reasons {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w)
		for _, k := range keys {
			faint.Fprintf(w, "  %s %d\n", padRight(k, 28), reasons[k])
		}
	}

	faint.Fprintf(w, "\n  run %s in %s\n", s.RunID[:8], s.Duration.Round(time.Millisecond))
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "clear the database before ingesting")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "items per transaction (default: config batch_size)")
	rootCmd.AddCommand(ingestCmd)
}
