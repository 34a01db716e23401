// ABOUTME: Tests for database lifecycle and shared test helpers.
// ABOUTME: Verifies migrations, pragmas, and default paths.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/healthdb/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "health.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// day is 2024-01-15 at the given hour.
func day(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func heartRate(value float64, start time.Time) *models.Record {
	return models.NewRecord("HeartRate", "Watch", value, start).WithUnit("count/min")
}

func TestOpenCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"records", "workouts", "sources", "record_types", "ingest_runs"} {
		var name string
		err := db.db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, db.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenIsRepeatable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "health.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	_, _, err = db.InsertRecord(context.Background(), heartRate(72, day(8, 0)))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRecords)

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, "/tmp/xdg-data/healthdb/health.db", DefaultDBPath())
}
