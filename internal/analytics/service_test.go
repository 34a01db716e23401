// ABOUTME: Tests for the aggregation service and report export.
// ABOUTME: Runs against a real SQLite store, with a stub for rounding edge cases.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
)

func setupService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db
}

var d0 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func at(days, hour int) time.Time {
	return d0.AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)
}

func TestDailyAggregateTwoReadings(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 72, at(0, 8)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 80, at(0, 9)))
	require.NoError(t, err)

	buckets, err := svc.DailyAggregate(ctx, "HeartRate", d0, d0)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, Bucket{Date: d0, Mean: 76, Min: 72, Max: 80, Count: 2}, buckets[0])
}

func TestDailyAggregateIncludesWholeLastDay(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 72, at(2, 23)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 72, at(3, 0)))
	require.NoError(t, err)

	buckets, err := svc.DailyAggregate(ctx, "HeartRate", d0, at(2, 6))
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, at(2, 0), buckets[0].Date)
}

func TestDailyAggregateOrderedAndBounded(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	values := []float64{61.3, 77.7, 90.1, 55.5, 68.2, 70.0, 83.3}
	for i, v := range values {
		for h := 0; h < 3; h++ {
			_, _, err := db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", v+float64(h)*0.1, at(i, h)))
			require.NoError(t, err)
		}
	}

	buckets, err := svc.DailyAggregate(ctx, "HeartRate", d0, at(6, 0))
	require.NoError(t, err)
	require.Len(t, buckets, len(values))

	for i, b := range buckets {
		assert.LessOrEqual(t, b.Min, b.Mean)
		assert.LessOrEqual(t, b.Mean, b.Max)
		assert.Equal(t, int64(3), b.Count)
		if i > 0 {
			assert.True(t, buckets[i-1].Date.Before(b.Date))
		}
	}
}

func TestAggregateInvalidRange(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.DailyAggregate(context.Background(), "HeartRate", at(1, 0), d0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.MonthlyAggregate(context.Background(), "HeartRate", at(40, 0), d0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestWeeklyAndMonthlyAggregate(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	for i := 0; i < 14; i++ {
		_, _, err := db.InsertRecord(ctx, models.NewRecord("StepCount", "Phone", 1000, at(i, 12)))
		require.NoError(t, err)
	}

	weeks, err := svc.WeeklyAggregate(ctx, "StepCount", d0, at(13, 0))
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, int64(7), weeks[0].Count)
	assert.Equal(t, d0, weeks[0].Date)

	months, err := svc.MonthlyAggregate(ctx, "StepCount", d0, at(13, 0))
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, int64(14), months[0].Count)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), months[0].Date)
}

func TestWorkoutsByType(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	w := models.NewWorkout("Running", "Watch", 30.5, at(0, 7)).WithEndDate(at(0, 8))
	_, _, err := db.InsertWorkout(ctx, w)
	require.NoError(t, err)

	rows, err := svc.WorkoutsByType(ctx, "Running", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 30.5, rows[0].Duration)
	assert.Equal(t, 30.5, rows[0].Value)
	require.NotNil(t, rows[0].Unit)
	assert.Equal(t, "min", *rows[0].Unit)
}

// stubQuerier returns canned buckets.
type stubQuerier struct {
	storage.Querier
	buckets []storage.Bucket
}

func (s stubQuerier) Buckets(context.Context, string, time.Time, time.Time, storage.Granularity) ([]storage.Bucket, error) {
	return s.buckets, nil
}

func TestAggregateClampsMean(t *testing.T) {
	svc := New(stubQuerier{buckets: []storage.Bucket{
		{Date: d0, Mean: 0.30000000000000004, Min: 0.1, Max: 0.3, Count: 3},
		{Date: at(1, 0), Mean: 4.999999999999999, Min: 5, Max: 5, Count: 2},
	}})

	buckets, err := svc.DailyAggregate(context.Background(), "X", d0, at(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.3, buckets[0].Mean)
	assert.Equal(t, 5.0, buckets[1].Mean)
}

func TestOverviewReport(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 72, at(0, 8)).
		WithMetadata("device", "Watch6,1"))
	require.NoError(t, err)
	_, _, err = db.InsertWorkout(ctx, models.NewWorkout("Running", "Watch", 30, at(0, 7)))
	require.NoError(t, err)

	report, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Stats.TotalRecords)
	assert.Equal(t, int64(1), report.Stats.TotalWorkouts)
	assert.Equal(t, "2024-01-15 07:00:00", report.Stats.FirstRecord)
	require.Len(t, report.RecordTypes, 2)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "Watch6,1", report.Sources[0].Device)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "healthdb", decoded["tool"])

	buf.Reset()
	require.NoError(t, report.WriteYAML(&buf))
	var decodedYAML Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decodedYAML))
	assert.Equal(t, report.Stats, decodedYAML.Stats)
}

func TestSeriesReport(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, models.NewRecord("HeartRate", "Watch", 72, at(0, 8)))
	require.NoError(t, err)

	series, err := svc.Series(ctx, "HeartRate", d0, at(1, 0), storage.Day)
	require.NoError(t, err)
	assert.Equal(t, "day", series.Granularity)
	require.Len(t, series.Points, 1)
	assert.Equal(t, "2024-01-15", series.Points[0].Date)

	var buf bytes.Buffer
	require.NoError(t, series.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "record_type: HeartRate")
}
