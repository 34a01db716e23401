// ABOUTME: Idempotent write path for records and workouts.
// ABOUTME: Each item inserts record, workout row, source, and type in one transaction.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/healthdb/internal/models"
)

// Item is one unit of a batch insert. Exactly one field is set.
type Item struct {
	Record  *models.Record
	Workout *models.Workout
}

// BatchResult counts the outcome of InsertBatch.
type BatchResult struct {
	Records    int
	Workouts   int
	Duplicates int
}

// InsertRecord stores a record unless its natural key already exists. On
// conflict it returns the existing id with inserted false; the stored row is
// left as first seen.
func (d *DB) InsertRecord(ctx context.Context, r *models.Record) (int64, bool, error) {
	var id int64
	var inserted bool
	err := d.withTx(ctx, func(tx *sql.Tx, newTypes map[string]struct{}) error {
		var err error
		id, inserted, err = d.insertRecord(ctx, tx, r, newTypes)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("insert record: %w", err)
	}
	r.ID = id
	return id, inserted, nil
}

// InsertWorkout stores a workout's backing record and its workout row.
func (d *DB) InsertWorkout(ctx context.Context, w *models.Workout) (int64, bool, error) {
	var id int64
	var inserted bool
	err := d.withTx(ctx, func(tx *sql.Tx, newTypes map[string]struct{}) error {
		var err error
		id, inserted, err = d.insertWorkout(ctx, tx, w, newTypes)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("insert workout: %w", err)
	}
	w.ID = id
	return id, inserted, nil
}

// InsertBatch stores many items in a single transaction. Cancelling ctx
// between items rolls the whole batch back.
func (d *DB) InsertBatch(ctx context.Context, items []Item) (BatchResult, error) {
	var res BatchResult
	err := d.withTx(ctx, func(tx *sql.Tx, newTypes map[string]struct{}) error {
		res = BatchResult{}
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			switch {
			case item.Workout != nil:
				id, inserted, err := d.insertWorkout(ctx, tx, item.Workout, newTypes)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				item.Workout.ID = id
				if inserted {
					res.Workouts++
				} else {
					res.Duplicates++
				}
			case item.Record != nil:
				id, inserted, err := d.insertRecord(ctx, tx, item.Record, newTypes)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				item.Record.ID = id
				if inserted {
					res.Records++
				} else {
					res.Duplicates++
				}
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("insert batch: %w", err)
	}
	return res, nil
}

// withTx runs fn in a transaction. Record types first inserted by fn are
// added to the known-type cache only after a successful commit.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx, newTypes map[string]struct{}) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	newTypes := make(map[string]struct{})
	if err := fn(tx, newTypes); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	d.mu.Lock()
	for name := range newTypes {
		d.types[name] = struct{}{}
	}
	d.mu.Unlock()
	return nil
}

func (d *DB) insertRecord(ctx context.Context, tx *sql.Tx, r *models.Record, newTypes map[string]struct{}) (int64, bool, error) {
	md := r.Metadata
	if md == nil {
		md = models.Metadata{}
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return 0, false, fmt.Errorf("marshal metadata: %w", err)
	}

	key := r.Key()
	var endDate any
	if r.EndDate != nil {
		endDate = key.EndDate
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO records (record_type, source, unit, value, start_date, end_date, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.RecordType, r.Source, nullable(r.Unit), r.Value, key.StartDate, endDate, string(mdJSON))
	if err != nil {
		return 0, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	var id int64
	inserted := affected > 0
	if inserted {
		if id, err = res.LastInsertId(); err != nil {
			return 0, false, err
		}
	} else {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM records
			WHERE record_type = ? AND source = ? AND start_date = ? AND IFNULL(end_date, '') = ?
		`, key.RecordType, key.Source, key.StartDate, key.EndDate).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("find existing record: %w", err)
		}
	}

	if err := upsertSource(ctx, tx, r); err != nil {
		return 0, false, err
	}
	if err := d.ensureRecordType(ctx, tx, r.RecordType, newTypes); err != nil {
		return 0, false, err
	}

	return id, inserted, nil
}

func (d *DB) insertWorkout(ctx context.Context, tx *sql.Tx, w *models.Workout, newTypes map[string]struct{}) (int64, bool, error) {
	id, inserted, err := d.insertRecord(ctx, tx, w.Record(), newTypes)
	if err != nil {
		return 0, false, err
	}

	var endDate any
	if w.EndDate != nil {
		endDate = models.FormatTime(*w.EndDate)
	}
	unit := w.DurationUnit
	if unit == "" {
		unit = models.DefaultDurationUnit
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO workouts (
			id, workout_type, source, duration, duration_unit, start_date, end_date,
			total_distance, total_distance_unit, total_energy_burned, total_energy_burned_unit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, w.WorkoutType, w.Source, w.Duration, unit, models.FormatTime(w.StartDate), endDate,
		nullable(w.TotalDistance), nullable(w.TotalDistanceUnit),
		nullable(w.TotalEnergyBurned), nullable(w.TotalEnergyBurnedUnit))
	if err != nil {
		return 0, false, fmt.Errorf("insert workout row: %w", err)
	}

	return id, inserted, nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
