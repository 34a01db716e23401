// ABOUTME: Maintains the derived sources and record_types tables.
// ABOUTME: Sources widen their seen window; a type's category is fixed when first inserted.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/healthdb/internal/models"
)

// upsertSource records the record's source. Version and device only replace
// stored values when present; first/last seen widen to cover the record.
func upsertSource(ctx context.Context, tx *sql.Tx, r *models.Record) error {
	seen := models.FormatTime(r.StartDate)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sources (name, version, device, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = COALESCE(excluded.version, sources.version),
			device = COALESCE(excluded.device, sources.device),
			first_seen = MIN(sources.first_seen, excluded.first_seen),
			last_seen = MAX(sources.last_seen, excluded.last_seen)
	`, r.Source, metadataValue(r.Metadata, "sourceVersion"), metadataValue(r.Metadata, "device"), seen, seen)
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// ensureRecordType inserts the type with its inferred category if it is new.
func (d *DB) ensureRecordType(ctx context.Context, tx *sql.Tx, typeName string, newTypes map[string]struct{}) error {
	if _, ok := newTypes[typeName]; ok {
		return nil
	}
	d.mu.Lock()
	_, known := d.types[typeName]
	d.mu.Unlock()
	if known {
		return nil
	}

	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO record_types (type_name, category) VALUES (?, ?)`,
		typeName, string(models.InferCategory(typeName)))
	if err != nil {
		return fmt.Errorf("insert record type: %w", err)
	}
	newTypes[typeName] = struct{}{}
	return nil
}

func (d *DB) resetTypeCache() {
	d.mu.Lock()
	d.types = make(map[string]struct{})
	d.mu.Unlock()
}

func metadataValue(md models.Metadata, key string) any {
	if v, ok := md[key]; ok && v != "" {
		return v
	}
	return nil
}

// RecordType returns the stored entry for a type name.
func (d *DB) RecordType(ctx context.Context, typeName string) (*models.RecordType, error) {
	var rt models.RecordType
	var category string
	err := d.db.QueryRowContext(ctx,
		`SELECT type_name, category FROM record_types WHERE type_name = ?`, typeName,
	).Scan(&rt.TypeName, &category)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record type %s: %w", typeName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record type: %w", err)
	}
	rt.Category = models.Category(category)
	return &rt, nil
}

// Source returns the stored entry for a source name.
func (d *DB) Source(ctx context.Context, name string) (*models.Source, error) {
	var (
		s                   models.Source
		version, device     sql.NullString
		firstSeen, lastSeen string
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT name, version, device, first_seen, last_seen FROM sources WHERE name = ?`, name,
	).Scan(&s.Name, &version, &device, &firstSeen, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	s.Version = nullString(version)
	s.Device = nullString(device)
	if s.FirstSeen, err = models.ParseStoredTime(firstSeen); err != nil {
		return nil, fmt.Errorf("parse first_seen: %w", err)
	}
	if s.LastSeen, err = models.ParseStoredTime(lastSeen); err != nil {
		return nil, fmt.Errorf("parse last_seen: %w", err)
	}
	return &s, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
