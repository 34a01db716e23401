// ABOUTME: Tests for the ingestion pipeline and exclusion filter.
// ABOUTME: Runs real exports into a temporary SQLite store.
package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/healthdb/internal/exportxml"
	"github.com/harperreed/healthdb/internal/extract"
	"github.com/harperreed/healthdb/internal/models"
	"github.com/harperreed/healthdb/internal/storage"
	"github.com/harperreed/healthdb/internal/validate"
)

const testExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <ExportDate value="2024-01-20 09:00:00 -0800"/>
 <Me HKCharacteristicTypeIdentifierBiologicalSex="HKBiologicalSexNotSet"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" value="72" startDate="2024-01-15 08:30:00 -0800" endDate="2024-01-15 08:30:00 -0800"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" value="abc" startDate="2024-01-15 08:35:00 -0800"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Phone" unit="count" value="500" startDate="2024-01-15 09:00:00 -0800" endDate="2024-01-15 09:10:00 -0800"/>
 <Correlation type="HKCorrelationTypeIdentifierBloodPressure" sourceName="Cuff" startDate="2024-01-15 09:00:00 -0800" endDate="2024-01-15 09:00:00 -0800">
  <Record type="HKQuantityTypeIdentifierBloodPressureSystolic" sourceName="Cuff" unit="mmHg" value="120" startDate="2024-01-15 09:00:00 -0800"/>
  <Record type="HKQuantityTypeIdentifierBloodPressureDiastolic" sourceName="Cuff" unit="mmHg" value="80" startDate="2024-01-15 09:00:00 -0800"/>
 </Correlation>
 <Workout workoutActivityType="HKWorkoutActivityTypeRunning" duration="30.5" durationUnit="min" sourceName="Watch" startDate="2024-01-15 07:00:00 -0800" endDate="2024-01-15 07:30:30 -0800"/>
</HealthData>
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func setup(t *testing.T, opts Options) (*Pipeline, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	v, err := validate.New()
	require.NoError(t, err)

	p, err := New(db, v, quietLogger(), opts)
	require.NoError(t, err)
	return p, db
}

func TestRunIngestsExport(t *testing.T) {
	p, db := setup(t, Options{BatchSize: 2})
	ctx := context.Background()

	summary, err := p.Run(ctx, writeExport(t, testExport))
	require.NoError(t, err)

	assert.Equal(t, 9, summary.Entries)
	assert.Equal(t, 4, summary.Records)
	assert.Equal(t, 1, summary.Workouts)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkipReasons[extract.BadValue])
	assert.Equal(t, 3, summary.Ignored)
	assert.Equal(t, 0, summary.Rejected)
	assert.Equal(t, 5, summary.Accepted())

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRecords)
	assert.Equal(t, int64(1), stats.TotalWorkouts)
	assert.Equal(t, int64(3), stats.TotalSources)
}

func TestRunIsIdempotent(t *testing.T) {
	p, db := setup(t, Options{})
	ctx := context.Background()
	path := writeExport(t, testExport)

	_, err := p.Run(ctx, path)
	require.NoError(t, err)

	summary, err := p.Run(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Accepted())
	assert.Equal(t, 5, summary.Duplicates)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRecords)

	runs, err := db.ListIngestRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, summary.RunID, runs[0].ID.String())
	assert.Equal(t, 5, runs[0].Duplicates)
	assert.Nil(t, runs[0].Error)
}

func TestRunWithResetClearsFirst(t *testing.T) {
	p, db := setup(t, Options{Reset: true})
	ctx := context.Background()

	_, _, err := db.InsertRecord(ctx, models.NewRecord("BodyMass", "Scale", 80, time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	summary, err := p.Run(ctx, writeExport(t, testExport))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Accepted())

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRecords)
}

func TestRunAppliesFilter(t *testing.T) {
	p, db := setup(t, Options{
		ExcludeTypes:   []string{"*StepCount"},
		ExcludeSources: []string{"Cu?f"},
	})
	ctx := context.Background()

	summary, err := p.Run(ctx, writeExport(t, testExport))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Filtered)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, 1, summary.Workouts)

	_, err = db.RecordType(ctx, "HKQuantityTypeIdentifierStepCount")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunCountsRejections(t *testing.T) {
	p, _ := setup(t, Options{})

	doc := `<HealthData>
 <Workout workoutActivityType="HKWorkoutActivityTypeYoga" duration="-5" sourceName="Watch" startDate="2024-01-15 07:00:00 -0800" endDate="2024-01-15 07:30:00 -0800"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeYoga" duration="20" sourceName="Watch" startDate="2024-01-15 09:00:00 -0800" endDate="2024-01-15 08:00:00 -0800"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" value="60" startDate="2024-01-15 10:00:00 -0800"/>
</HealthData>
`
	summary, err := p.Run(context.Background(), writeExport(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 1, summary.RejectReasons[validate.NegativeDuration])
	assert.Equal(t, 1, summary.RejectReasons[validate.DateOrder])
	assert.Equal(t, 1, summary.Records)
}

func TestRunSkipsMalformedElements(t *testing.T) {
	p, _ := setup(t, Options{})

	doc := `<HealthData>
 <Record type="A" sourceName="S" value="1" startDate="2024-01-15 10:00:00 -0800"/>
 <Record type="B" sourceName="S"><Value>2</Valu></Record>
 <Record type="C" sourceName="S" value="3" startDate="2024-01-15 11:00:00 -0800"/>
</HealthData>
`
	summary, err := p.Run(context.Background(), writeExport(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ElementErrors)
	assert.Equal(t, 2, summary.Records)
}

func TestRunLocatesExportInDirectory(t *testing.T) {
	p, _ := setup(t, Options{})

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "apple_health_export"), 0750))
	path := filepath.Join(dir, "apple_health_export", "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(testExport), 0600))

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, path, summary.Path)
	assert.Equal(t, 5, summary.Accepted())
}

func TestRunRecordsFailedRun(t *testing.T) {
	p, db := setup(t, Options{})
	ctx := context.Background()

	summary, err := p.Run(ctx, filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)

	var formatErr *exportxml.FormatError
	assert.True(t, errors.As(err, &formatErr))
	require.NotNil(t, summary)

	runs, err := db.ListIngestRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Error)
	assert.Equal(t, summary.RunID, runs[0].ID.String())
}

// failingStore rejects every batch and remembers the recorded run.
type failingStore struct {
	storage.Writer
	run *models.IngestRun
}

func (s *failingStore) InsertBatch(context.Context, []storage.Item) (storage.BatchResult, error) {
	return storage.BatchResult{}, errors.New("disk full")
}

func (s *failingStore) RecordIngestRun(_ context.Context, run *models.IngestRun) error {
	s.run = run
	return nil
}

func TestRunReturnsTotalsOnWriteFailure(t *testing.T) {
	v, err := validate.New()
	require.NoError(t, err)
	store := &failingStore{}
	p, err := New(store, v, quietLogger(), Options{BatchSize: 1})
	require.NoError(t, err)

	summary, err := p.Run(context.Background(), writeExport(t, testExport))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Accepted())

	require.NotNil(t, store.run)
	require.NotNil(t, store.run.Error)
	assert.Contains(t, *store.run.Error, "disk full")
}

func TestRunCancelled(t *testing.T) {
	p, _ := setup(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := p.Run(ctx, writeExport(t, testExport))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(nil, nil, nil, Options{ExcludeTypes: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclude_types")
}

func TestFilter(t *testing.T) {
	f, err := NewFilter([]string{"HKQuantityTypeIdentifier*Energy*", "Workout:*Walking"}, []string{"Old *"})
	require.NoError(t, err)
	assert.False(t, f.Empty())

	tests := []struct {
		recordType string
		source     string
		want       bool
	}{
		{"HKQuantityTypeIdentifierActiveEnergyBurned", "Watch", true},
		{"HKQuantityTypeIdentifierHeartRate", "Watch", false},
		{"Workout:HKWorkoutActivityTypeWalking", "Watch", true},
		{"Workout:HKWorkoutActivityTypeRunning", "Watch", false},
		{"HKQuantityTypeIdentifierHeartRate", "Old Phone", true},
	}
	for _, tt := range tests {
		t.Run(tt.recordType+"/"+tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Excluded(tt.recordType, tt.source))
		})
	}

	empty, err := NewFilter(nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.False(t, empty.Excluded("anything", "anywhere"))
}
