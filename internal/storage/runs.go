// ABOUTME: Persistence for ingestion run audit rows.
// ABOUTME: Runs are keyed by UUID and listed newest first.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/harperreed/healthdb/internal/models"
)

// RecordIngestRun stores the outcome of an ingestion run.
func (d *DB) RecordIngestRun(ctx context.Context, run *models.IngestRun) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (
			id, path, started_at, finished_at, entries, records, workouts,
			duplicates, skipped, rejected, filtered, ignored, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.Path, models.FormatTime(run.StartedAt), models.FormatTime(run.FinishedAt),
		run.Entries, run.Records, run.Workouts, run.Duplicates, run.Skipped, run.Rejected,
		run.Filtered, run.Ignored, nullable(run.Error))
	if err != nil {
		return fmt.Errorf("record ingest run: %w", err)
	}
	return nil
}

// ListIngestRuns returns recent runs, newest first. A limit of zero returns all.
func (d *DB) ListIngestRuns(ctx context.Context, limit int) ([]*models.IngestRun, error) {
	query := sq.Select(
		"id", "path", "started_at", "finished_at", "entries", "records", "workouts",
		"duplicates", "skipped", "rejected", "filtered", "ignored", "error",
	).
		From("ingest_runs").
		OrderBy("started_at DESC", "rowid DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.IngestRun
	for rows.Next() {
		var (
			run               models.IngestRun
			id, start, finish string
			runErr            sql.NullString
		)
		err := rows.Scan(&id, &run.Path, &start, &finish, &run.Entries, &run.Records, &run.Workouts,
			&run.Duplicates, &run.Skipped, &run.Rejected, &run.Filtered, &run.Ignored, &runErr)
		if err != nil {
			return nil, fmt.Errorf("scan ingest run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		if run.StartedAt, err = models.ParseStoredTime(start); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = models.ParseStoredTime(finish); err != nil {
			return nil, err
		}
		run.Error = nullString(runErr)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
