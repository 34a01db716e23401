// ABOUTME: Aggregation query layer over the storage engine.
// ABOUTME: Daily/weekly/monthly rollups over inclusive calendar-day ranges.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
)

// ErrInvalidRange is returned when from is after to.
var ErrInvalidRange = errors.New("invalid date range: from is after to")

// Bucket is one aggregated period. Date is the first day of the period.
type Bucket struct {
	Date  time.Time
	Mean  float64
	Min   float64
	Max   float64
	Count int64
}

// Service answers analytical queries. It is read-only and keeps no state
// between calls.
type Service struct {
	q storage.Querier
}

// New creates a Service.
func New(q storage.Querier) *Service {
	return &Service{q: q}
}

// DailyAggregate returns one bucket per day with data in [from, to].
func (s *Service) DailyAggregate(ctx context.Context, recordType string, from, to time.Time) ([]Bucket, error) {
	return s.aggregate(ctx, recordType, from, to, storage.Day)
}

// WeeklyAggregate returns one bucket per Monday-based week with data in [from, to].
func (s *Service) WeeklyAggregate(ctx context.Context, recordType string, from, to time.Time) ([]Bucket, error) {
	return s.aggregate(ctx, recordType, from, to, storage.Week)
}

// MonthlyAggregate returns one bucket per month with data in [from, to].
func (s *Service) MonthlyAggregate(ctx context.Context, recordType string, from, to time.Time) ([]Bucket, error) {
	return s.aggregate(ctx, recordType, from, to, storage.Month)
}

// Aggregate dispatches on granularity.
func (s *Service) Aggregate(ctx context.Context, recordType string, from, to time.Time, g storage.Granularity) ([]Bucket, error) {
	return s.aggregate(ctx, recordType, from, to, g)
}

func (s *Service) aggregate(ctx context.Context, recordType string, from, to time.Time, g storage.Granularity) ([]Bucket, error) {
	start, end, err := dayRange(from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Buckets(ctx, recordType, start, end, g)
	if err != nil {
		return nil, fmt.Errorf("%s aggregate %s: %w", g, recordType, err)
	}

	out := make([]Bucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, Bucket{
			Date:  r.Date,
			Mean:  math.Min(math.Max(r.Mean, r.Min), r.Max),
			Min:   r.Min,
			Max:   r.Max,
			Count: r.Count,
		})
	}
	return out, nil
}

// dayRange converts inclusive calendar days into a half-open instant range.
func dayRange(from, to time.Time) (time.Time, time.Time, error) {
	start := models.StartOfDay(from)
	last := models.StartOfDay(to)
	if start.After(last) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return start, last.AddDate(0, 0, 1), nil
}

// WorkoutsByType returns the newest workouts of a type.
func (s *Service) WorkoutsByType(ctx context.Context, workoutType string, limit int) ([]storage.WorkoutRow, error) {
	rows, err := s.q.WorkoutsByType(ctx, workoutType, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Stats returns whole-store counts.
func (s *Service) Stats(ctx context.Context) (*storage.Stats, error) {
	return s.q.Stats(ctx)
}

// RecordTypes returns the type directory.
func (s *Service) RecordTypes(ctx context.Context) ([]storage.RecordTypeSummary, error) {
	return s.q.RecordTypeSummaries(ctx)
}

// Sources returns the source directory.
func (s *Service) Sources(ctx context.Context) ([]storage.SourceSummary, error) {
	return s.q.SourceSummaries(ctx)
}
