// ABOUTME: Interfaces over the storage engine used by ingestion and analytics.
// ABOUTME: Splits the write path from the read-only query path.
package storage

import (
	"context"
	"time"

	"github.com/harperreed/healthdb/internal/models"
)

// Writer is the ingestion-side contract.
type Writer interface {
	InsertRecord(ctx context.Context, r *models.Record) (int64, bool, error)
	InsertWorkout(ctx context.Context, w *models.Workout) (int64, bool, error)
	InsertBatch(ctx context.Context, items []Item) (BatchResult, error)
	Clear(ctx context.Context) error
	RecordIngestRun(ctx context.Context, run *models.IngestRun) error
}

// Querier is the read-only contract.
type Querier interface {
	RecordsByType(ctx context.Context, recordType string, limit int) ([]*models.Record, error)
	RecordsInRange(ctx context.Context, start, end time.Time, recordType *string) ([]*models.Record, error)
	Stats(ctx context.Context) (*Stats, error)
	RecordTypeSummaries(ctx context.Context) ([]RecordTypeSummary, error)
	SourceSummaries(ctx context.Context) ([]SourceSummary, error)
	Buckets(ctx context.Context, recordType string, from, to time.Time, g Granularity) ([]Bucket, error)
	WorkoutsByType(ctx context.Context, workoutType string, limit int) ([]WorkoutRow, error)
	ListIngestRuns(ctx context.Context, limit int) ([]*models.IngestRun, error)
}

// Repository is the full storage contract.
type Repository interface {
	Writer
	Querier

	Backup(ctx context.Context, dst string) error
	Restore(ctx context.Context, src string) error
	Close() error
}

var _ Repository = (*DB)(nil)
