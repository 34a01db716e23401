// ABOUTME: Read path: record scans, directory summaries, bucketed aggregates.
// ABOUTME: Dynamic filters are built with squirrel; results are plain structs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/harperreed/healthdb/internal/models"
)

// DefaultRecordLimit caps RecordsByType when no limit is given.
const DefaultRecordLimit = 1000

// DefaultWorkoutLimit caps WorkoutsByType when no limit is given.
const DefaultWorkoutLimit = 100

const bucketDateLayout = "2006-01-02"

// Stats summarises the whole store.
type Stats struct {
	TotalRecords     int64
	TotalWorkouts    int64
	TotalSources     int64
	TotalRecordTypes int64
	FirstRecord      *time.Time
	LastRecord       *time.Time
}

// RecordTypeSummary is one row of the type directory.
type RecordTypeSummary struct {
	TypeName    string
	Category    models.Category
	Count       int64
	FirstRecord *time.Time
	LastRecord  *time.Time
}

// SourceSummary is one row of the source directory.
type SourceSummary struct {
	Name      string
	Device    *string
	Count     int64
	FirstSeen time.Time
	LastSeen  time.Time
}

// Granularity selects the bucket width of an aggregate.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity parses "day", "week", or "month". Empty means Day.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Day, nil
	case Day, Week, Month:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want day, week, or month)", s)
	}
}

// bucketExpr returns the SQL expression naming a record's bucket.
// Weeks start on Monday.
func (g Granularity) bucketExpr() (string, error) {
	switch g {
	case Day:
		return "DATE(start_date)", nil
	case Week:
		return "DATE(start_date, 'weekday 0', '-6 days')", nil
	case Month:
		return "DATE(start_date, 'start of month')", nil
	default:
		return "", fmt.Errorf("unknown granularity %q", g)
	}
}

// Bucket is one aggregated period.
type Bucket struct {
	Date  time.Time
	Mean  float64
	Min   float64
	Max   float64
	Count int64
}

// WorkoutRow is a workout joined with its backing record's unit and value.
type WorkoutRow struct {
	models.Workout
	Unit  *string
	Value float64
}

var recordColumns = []string{
	"id", "record_type", "source", "unit", "value", "start_date", "end_date", "metadata_json",
}

// RecordsByType returns the newest records of a type.
func (d *DB) RecordsByType(ctx context.Context, recordType string, limit int) ([]*models.Record, error) {
	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	query := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"record_type": recordType}).
		OrderBy("start_date DESC", "id DESC").
		Limit(uint64(limit))

	records, err := d.queryRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("records by type: %w", err)
	}
	return records, nil
}

// RecordsInRange returns records starting in [start, end), oldest first,
// optionally restricted to one type.
func (d *DB) RecordsInRange(ctx context.Context, start, end time.Time, recordType *string) ([]*models.Record, error) {
	query := sq.Select(recordColumns...).
		From("records").
		Where(sq.GtOrEq{"start_date": models.FormatTime(start)}).
		Where(sq.Lt{"start_date": models.FormatTime(end)}).
		OrderBy("start_date", "id")
	if recordType != nil {
		query = query.Where(sq.Eq{"record_type": *recordType})
	}

	records, err := d.queryRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("records in range: %w", err)
	}
	return records, nil
}

func (d *DB) queryRecords(ctx context.Context, query sq.SelectBuilder) ([]*models.Record, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (*models.Record, error) {
	var (
		r             models.Record
		unit, endDate sql.NullString
		startDate     string
		mdJSON        string
	)
	if err := rows.Scan(&r.ID, &r.RecordType, &r.Source, &unit, &r.Value, &startDate, &endDate, &mdJSON); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	var err error
	r.Unit = nullString(unit)
	if r.StartDate, err = models.ParseStoredTime(startDate); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if r.EndDate, err = parseNullTime(endDate); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	r.Metadata = models.Metadata{}
	if mdJSON != "" {
		if err := json.Unmarshal([]byte(mdJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}
	return &r, nil
}

// Stats returns whole-store counts and the span of record start dates.
func (d *DB) Stats(ctx context.Context) (*Stats, error) {
	var (
		s           Stats
		first, last sql.NullString
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM records),
			(SELECT COUNT(*) FROM workouts),
			(SELECT COUNT(*) FROM sources),
			(SELECT COUNT(*) FROM record_types),
			(SELECT MIN(start_date) FROM records),
			(SELECT MAX(start_date) FROM records)
	`).Scan(&s.TotalRecords, &s.TotalWorkouts, &s.TotalSources, &s.TotalRecordTypes, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	if s.FirstRecord, err = parseNullTime(first); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if s.LastRecord, err = parseNullTime(last); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &s, nil
}

// RecordTypeSummaries lists every known type with its record count, most
// frequent first.
func (d *DB) RecordTypeSummaries(ctx context.Context) ([]RecordTypeSummary, error) {
	stmt, args, err := sq.Select(
		"rt.type_name", "rt.category", "COUNT(r.id) AS record_count",
		"MIN(r.start_date)", "MAX(r.start_date)",
	).
		From("record_types rt").
		LeftJoin("records r ON r.record_type = rt.type_name").
		GroupBy("rt.type_name", "rt.category").
		OrderBy("record_count DESC", "rt.type_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("record type summaries: %w", err)
	}
	defer rows.Close()

	var out []RecordTypeSummary
	for rows.Next() {
		var (
			s           RecordTypeSummary
			category    string
			first, last sql.NullString
		)
		if err := rows.Scan(&s.TypeName, &category, &s.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan record type summary: %w", err)
		}
		s.Category = models.Category(category)
		if s.FirstRecord, err = parseNullTime(first); err != nil {
			return nil, err
		}
		if s.LastRecord, err = parseNullTime(last); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SourceSummaries lists every source with its record count, most frequent first.
func (d *DB) SourceSummaries(ctx context.Context) ([]SourceSummary, error) {
	stmt, args, err := sq.Select(
		"s.name", "s.device", "COUNT(r.id) AS record_count", "s.first_seen", "s.last_seen",
	).
		From("sources s").
		LeftJoin("records r ON r.source = s.name").
		GroupBy("s.name", "s.device", "s.first_seen", "s.last_seen").
		OrderBy("record_count DESC", "s.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("source summaries: %w", err)
	}
	defer rows.Close()

	var out []SourceSummary
	for rows.Next() {
		var (
			s           SourceSummary
			device      sql.NullString
			first, last string
		)
		if err := rows.Scan(&s.Name, &device, &s.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan source summary: %w", err)
		}
		s.Device = nullString(device)
		if s.FirstSeen, err = models.ParseStoredTime(first); err != nil {
			return nil, err
		}
		if s.LastSeen, err = models.ParseStoredTime(last); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Buckets aggregates values of one type starting in [from, to), one row per
// period, in ascending order.
func (d *DB) Buckets(ctx context.Context, recordType string, from, to time.Time, g Granularity) ([]Bucket, error) {
	expr, err := g.bucketExpr()
	if err != nil {
		return nil, err
	}

	stmt, args, err := sq.Select(
		expr+" AS bucket", "AVG(value)", "MIN(value)", "MAX(value)", "COUNT(*)",
	).
		From("records").
		Where(sq.Eq{"record_type": recordType}).
		Where(sq.GtOrEq{"start_date": models.FormatTime(from)}).
		Where(sq.Lt{"start_date": models.FormatTime(to)}).
		GroupBy("bucket").
		OrderBy("bucket").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", g, err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var (
			b    Bucket
			date string
		)
		if err := rows.Scan(&date, &b.Mean, &b.Min, &b.Max, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		if b.Date, err = time.Parse(bucketDateLayout, date); err != nil {
			return nil, fmt.Errorf("parse bucket date: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// WorkoutsByType returns the newest workouts of a type with their backing
// record's unit and value.
func (d *DB) WorkoutsByType(ctx context.Context, workoutType string, limit int) ([]WorkoutRow, error) {
	if limit <= 0 {
		limit = DefaultWorkoutLimit
	}
	stmt, args, err := sq.Select(
		"w.id", "w.workout_type", "w.source", "w.duration", "w.duration_unit",
		"w.start_date", "w.end_date", "w.total_distance", "w.total_distance_unit",
		"w.total_energy_burned", "w.total_energy_burned_unit", "r.unit", "r.value",
		"r.metadata_json",
	).
		From("workouts w").
		Join("records r ON r.id = w.id").
		Where(sq.Eq{"w.workout_type": workoutType}).
		OrderBy("w.start_date DESC", "w.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("workouts by type: %w", err)
	}
	defer rows.Close()

	var out []WorkoutRow
	for rows.Next() {
		var (
			w                      WorkoutRow
			start                  string
			end, distUnit, energyU sql.NullString
			unit                   sql.NullString
			distance, energy       sql.NullFloat64
			mdJSON                 string
		)
		err := rows.Scan(&w.ID, &w.WorkoutType, &w.Source, &w.Duration, &w.DurationUnit,
			&start, &end, &distance, &distUnit, &energy, &energyU, &unit, &w.Value, &mdJSON)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		if w.StartDate, err = models.ParseStoredTime(start); err != nil {
			return nil, err
		}
		if w.EndDate, err = parseNullTime(end); err != nil {
			return nil, err
		}
		w.TotalDistance = nullFloat(distance)
		w.TotalDistanceUnit = nullString(distUnit)
		w.TotalEnergyBurned = nullFloat(energy)
		w.TotalEnergyBurnedUnit = nullString(energyU)
		w.Unit = nullString(unit)
		w.Metadata = models.Metadata{}
		if err := json.Unmarshal([]byte(mdJSON), &w.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := models.ParseStoredTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}
