// ABOUTME: Tests for the read path.
// ABOUTME: Covers range scans, summaries, bucketed aggregates, and workout joins.
package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/healthdb/internal/models"
)

func TestBucketsDaily(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, r := range []*models.Record{
		heartRate(72, day(8, 0)),
		heartRate(80, day(20, 0)),
		heartRate(60, day(8, 0).AddDate(0, 0, 1)),
		heartRate(100, day(8, 0).AddDate(0, 0, 3)),
	} {
		_, _, err := db.InsertRecord(ctx, r)
		require.NoError(t, err)
	}

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	buckets, err := db.Buckets(ctx, "HeartRate", from, from.AddDate(0, 0, 2), Day)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, from, buckets[0].Date)
	assert.Equal(t, 76.0, buckets[0].Mean)
	assert.Equal(t, 72.0, buckets[0].Min)
	assert.Equal(t, 80.0, buckets[0].Max)
	assert.Equal(t, int64(2), buckets[0].Count)

	assert.Equal(t, from.AddDate(0, 0, 1), buckets[1].Date)
	assert.Equal(t, int64(1), buckets[1].Count)
}

func TestBucketsWeeklyAndMonthly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// 2024-01-14 is a Sunday, 2024-01-15 a Monday.
	sunday := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for _, start := range []time.Time{sunday, monday, monday.AddDate(0, 0, 6), feb} {
		_, _, err := db.InsertRecord(ctx, heartRate(70, start))
		require.NoError(t, err)
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	weeks, err := db.Buckets(ctx, "HeartRate", from, to, Week)
	require.NoError(t, err)
	require.Len(t, weeks, 3)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), weeks[0].Date)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), weeks[1].Date)
	assert.Equal(t, int64(2), weeks[1].Count)
	assert.Equal(t, time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), weeks[2].Date)

	months, err := db.Buckets(ctx, "HeartRate", from, to, Month)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, int64(3), months[0].Count)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), months[1].Date)

	_, err = db.Buckets(ctx, "HeartRate", from, to, Granularity("hour"))
	assert.Error(t, err)
}

func TestRecordsInRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, heartRate(72, day(8, 0)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, heartRate(80, day(10, 0)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, models.NewRecord("StepCount", "Phone", 1200, day(9, 0)))
	require.NoError(t, err)

	all, err := db.RecordsInRange(ctx, day(8, 0), day(10, 0), nil)
	require.NoError(t, err)
	require.Len(t, all, 2, "end bound is exclusive")
	assert.Equal(t, 72.0, all[0].Value)
	assert.Equal(t, "StepCount", all[1].RecordType)

	typ := "HeartRate"
	hr, err := db.RecordsInRange(ctx, day(0, 0), day(23, 0), &typ)
	require.NoError(t, err)
	require.Len(t, hr, 2)
	assert.True(t, hr[0].StartDate.Before(hr[1].StartDate))
}

func TestRecordsByTypeOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := db.InsertRecord(ctx, heartRate(float64(60+i), day(8+i, 0)))
		require.NoError(t, err)
	}

	records, err := db.RecordsByType(ctx, "HeartRate", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 64.0, records[0].Value)
	assert.Equal(t, 62.0, records[2].Value)
}

func TestSummaries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, heartRate(72, day(8, 0)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, heartRate(73, day(9, 0)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, models.NewRecord("StepCount", "Phone", 1200, day(10, 0)).
		WithMetadata("device", "iPhone"))
	require.NoError(t, err)

	types, err := db.RecordTypeSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "HeartRate", types[0].TypeName)
	assert.Equal(t, models.CategoryVitalSigns, types[0].Category)
	assert.Equal(t, int64(2), types[0].Count)
	require.NotNil(t, types[0].FirstRecord)
	assert.True(t, types[0].FirstRecord.Equal(day(8, 0)))
	assert.True(t, types[0].LastRecord.Equal(day(9, 0)))
	assert.Equal(t, models.CategoryActivity, types[1].Category)

	sources, err := db.SourceSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Watch", sources[0].Name)
	assert.Equal(t, int64(2), sources[0].Count)
	assert.Nil(t, sources[0].Device)
	require.NotNil(t, sources[1].Device)
	assert.Equal(t, "iPhone", *sources[1].Device)
}

func TestStatsEmpty(t *testing.T) {
	db := setupTestDB(t)

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, *stats)
}

func TestStatsSpan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, heartRate(72, day(8, 0)))
	require.NoError(t, err)
	_, _, err = db.InsertRecord(ctx, heartRate(72, day(18, 0)))
	require.NoError(t, err)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.FirstRecord)
	require.NotNil(t, stats.LastRecord)
	assert.True(t, stats.FirstRecord.Equal(day(8, 0)))
	assert.True(t, stats.LastRecord.Equal(day(18, 0)))
}

func TestWorkoutsByType(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	w := models.NewWorkout("Running", "Watch", 30.5, day(7, 0)).
		WithEndDate(day(7, 30)).
		WithEnergy(310, "kcal")
	_, _, err := db.InsertWorkout(ctx, w)
	require.NoError(t, err)
	_, _, err = db.InsertWorkout(ctx, models.NewWorkout("Yoga", "Watch", 20, day(18, 0)))
	require.NoError(t, err)

	rows, err := db.WorkoutsByType(ctx, "Running", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, w.ID, row.ID)
	assert.Equal(t, 30.5, row.Duration)
	assert.Equal(t, 30.5, row.Value)
	require.NotNil(t, row.Unit)
	assert.Equal(t, "min", *row.Unit)
	require.NotNil(t, row.TotalEnergyBurned)
	assert.Equal(t, 310.0, *row.TotalEnergyBurned)
	assert.Nil(t, row.TotalDistance)
	require.NotNil(t, row.EndDate)
	assert.Equal(t, "Running", row.Metadata["workout_type"])
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"": Day, "day": Day, "Week": Week, " month ": Month} {
		got, err := ParseGranularity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGranularity("year")
	assert.Error(t, err)
}
