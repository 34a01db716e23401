// ABOUTME: IngestRun model recording the outcome of one ingestion pass.
// ABOUTME: Runs are identified by UUID and carry accepted/skipped/rejected totals.
package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestRun is the audit row written after each ingestion pass.
type IngestRun struct {
	ID         uuid.UUID
	Path       string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    int
	Records    int
	Workouts   int
	Duplicates int
	Skipped    int
	Rejected   int
	Filtered   int
	Ignored    int
	Error      *string
}

// NewIngestRun creates a run for the given export path, started now.
func NewIngestRun(path string) *IngestRun {
	return &IngestRun{
		ID:        uuid.New(),
		Path:      path,
		StartedAt: time.Now().UTC(),
	}
}

// Accepted returns the number of new rows written by the run.
func (r *IngestRun) Accepted() int {
	return r.Records + r.Workouts
}
