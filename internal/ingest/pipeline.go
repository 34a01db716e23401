// ABOUTME: Ingestion pipeline from export document to store.
// ABOUTME: A reader stage extracts and validates entries; a single writer commits batches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/healthdb/internal/exportxml"
	"github.com/harperreed/healthdb/internal/extract"
	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
	"github.com/harperreed/healthdb/internal/validate"
)

// DefaultBatchSize is the number of items committed per transaction.
const DefaultBatchSize = 500

// Options configures a Pipeline.
type Options struct {
	BatchSize      int
	Reset          bool
	ExcludeTypes   []string
	ExcludeSources []string
}

// Summary reports the totals of one run. It is returned even when the run fails.
type Summary struct {
	RunID         string
	Path          string
	Entries       int
	Records       int
	Workouts      int
	Duplicates    int
	Skipped       int
	Rejected      int
	Filtered      int
	Ignored       int
	ElementErrors int
	SkipReasons   map[extract.SkipReason]int
	RejectReasons map[validate.Reason]int
	Duration      time.Duration
}

// Accepted returns the number of new rows written.
func (s *Summary) Accepted() int {
	return s.Records + s.Workouts
}

// Pipeline runs ingestion into a store.
type Pipeline struct {
	log       *slog.Logger
	store     storage.Writer
	validator *validate.Validator
	filter    *Filter
	opts      Options
}

// New creates a Pipeline.
func New(store storage.Writer, v *validate.Validator, log *slog.Logger, opts Options) (*Pipeline, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	filter, err := NewFilter(opts.ExcludeTypes, opts.ExcludeSources)
	if err != nil {
		return nil, err
	}
	return &Pipeline{log: log, store: store, validator: v, filter: filter, opts: opts}, nil
}

// readCounts is owned by the reader stage.
type readCounts struct {
	entries       int
	extracted     extract.Stats
	rejected      int
	filtered      int
	elementErrors int
	rejectReasons map[validate.Reason]int
}

// Run ingests the export at path. path may be the export document itself or
// a decompressed export directory.
func (p *Pipeline) Run(ctx context.Context, path string) (*Summary, error) {
	run := models.NewIngestRun(path)
	summary := &Summary{RunID: run.ID.String(), Path: path}

	rc := readCounts{rejectReasons: make(map[validate.Reason]int)}
	var written storage.BatchResult

	err := p.run(ctx, path, summary, &rc, &written)

	summary.Entries = rc.entries
	summary.Skipped = rc.extracted.Skipped
	summary.Rejected = rc.rejected
	summary.Filtered = rc.filtered
	summary.Ignored = rc.extracted.NotApplicable
	summary.ElementErrors = rc.elementErrors
	summary.SkipReasons = rc.extracted.Reasons
	if summary.SkipReasons == nil {
		summary.SkipReasons = make(map[extract.SkipReason]int)
	}
	summary.RejectReasons = rc.rejectReasons
	summary.Records = written.Records
	summary.Workouts = written.Workouts
	summary.Duplicates = written.Duplicates

	run.Path = summary.Path
	run.FinishedAt = time.Now().UTC()
	summary.Duration = run.FinishedAt.Sub(run.StartedAt)
	run.Entries = summary.Entries
	run.Records = summary.Records
	run.Workouts = summary.Workouts
	run.Duplicates = summary.Duplicates
	run.Skipped = summary.Skipped
	run.Rejected = summary.Rejected
	run.Filtered = summary.Filtered
	run.Ignored = summary.Ignored
	if err != nil {
		msg := err.Error()
		run.Error = &msg
	}

	if recErr := p.store.RecordIngestRun(context.WithoutCancel(ctx), run); recErr != nil {
		p.log.Error("failed to record ingest run", "run_id", summary.RunID, "error", recErr)
		if err == nil {
			err = recErr
		}
	}

	attrs := []any{
		"run_id", summary.RunID,
		"entries", summary.Entries,
		"records", summary.Records,
		"workouts", summary.Workouts,
		"duplicates", summary.Duplicates,
		"skipped", summary.Skipped,
		"rejected", summary.Rejected,
		"filtered", summary.Filtered,
		"element_errors", summary.ElementErrors,
		"duration", summary.Duration,
	}
	if err != nil {
		p.log.Error("ingest failed", append(attrs, "error", err)...)
		return summary, err
	}
	p.log.Info("ingest finished", attrs...)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, path string, summary *Summary, rc *readCounts, written *storage.BatchResult) error {
	docPath, err := resolve(path)
	if err != nil {
		return err
	}
	summary.Path = docPath

	reader, err := exportxml.Open(docPath)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	if p.opts.Reset {
		p.log.Info("clearing store before ingest")
		if err := p.store.Clear(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}

	p.log.Info("ingest started", "path", docPath, "batch_size", p.opts.BatchSize)

	items := make(chan storage.Item, p.opts.BatchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(items)
		return p.read(gctx, reader, items, rc)
	})

	g.Go(func() error {
		return p.write(gctx, items, written)
	})

	return g.Wait()
}

// read extracts, filters, and validates entries, sending accepted items to out.
func (p *Pipeline) read(ctx context.Context, reader *exportxml.Reader, out chan<- storage.Item, rc *readCounts) error {
	for entry, err := range reader.Entries(ctx) {
		if err != nil {
			var elemErr *exportxml.ElementError
			if errors.As(err, &elemErr) {
				rc.elementErrors++
				p.log.Warn("malformed element", "offset", elemErr.Offset, "tag", elemErr.Tag, "error", elemErr.Err)
				continue
			}
			return err
		}
		rc.entries++

		res := extract.Extract(entry)
		rc.extracted.Add(res)
		var item storage.Item
		var recordType, source string

		switch res.Kind {
		case extract.KindNotApplicable:
			continue
		case extract.KindSkipped:
			p.log.Debug("entry skipped", "offset", entry.Offset, "reason", res.Reason, "detail", res.Detail)
			continue
		case extract.KindRecord:
			item.Record = res.Record
			recordType, source = res.Record.RecordType, res.Record.Source
		case extract.KindWorkout:
			item.Workout = res.Workout
			recordType, source = res.Workout.RecordType(), res.Workout.Source
		}

		if p.filter.Excluded(recordType, source) {
			rc.filtered++
			continue
		}

		var verdict validate.Verdict
		if item.Workout != nil {
			verdict = p.validator.ValidateWorkout(item.Workout)
		} else {
			verdict = p.validator.ValidateRecord(item.Record)
		}
		if !verdict.OK {
			rc.rejected++
			rc.rejectReasons[verdict.Reason]++
			p.log.Debug("entry rejected", "offset", entry.Offset, "type", recordType, "reason", verdict.Reason, "detail", verdict.Detail)
			continue
		}

		select {
		case out <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// write commits items in batches. It is the only goroutine touching the store.
func (p *Pipeline) write(ctx context.Context, in <-chan storage.Item, written *storage.BatchResult) error {
	batch := make([]storage.Item, 0, p.opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := p.store.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		written.Records += res.Records
		written.Workouts += res.Workouts
		written.Duplicates += res.Duplicates
		p.log.Debug("batch committed", "items", len(batch), "records", res.Records,
			"workouts", res.Workouts, "duplicates", res.Duplicates)
		batch = batch[:0]
		return nil
	}

	for item := range in {
		batch = append(batch, item)
		if len(batch) >= p.opts.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// resolve returns the export document for path.
func resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &exportxml.FormatError{Path: path, Err: err}
	}
	if info.IsDir() {
		return exportxml.Locate(path)
	}
	return path, nil
}
