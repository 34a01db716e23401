// ABOUTME: Whole-store maintenance: clear, file backup, and restore.
// ABOUTME: Backups are plain copies of the SQLite file taken after a WAL checkpoint.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// sqliteHeader is the first 16 bytes of every SQLite 3 database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// Clear deletes all data in one transaction. The schema is kept.
func (d *DB) Clear(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: begin transaction: %w", err)
	}

	for _, table := range []string{"workouts", "records", "sources", "record_types", "ingest_runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: commit: %w", err)
	}
	d.resetTypeCache()
	return nil
}

// Backup writes a copy of the database file to dst.
func (d *DB) Backup(ctx context.Context, dst string) error {
	if _, err := d.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := copyFile(d.dbPath, dst); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

// Restore replaces the database with the backup at src and reopens it.
func (d *DB) Restore(ctx context.Context, src string) error {
	if err := checkHeader(src); err != nil {
		return err
	}

	if err := d.Close(); err != nil {
		return fmt.Errorf("restore: close database: %w", err)
	}

	copyErr := copyFile(src, d.dbPath)
	if copyErr == nil {
		for _, suffix := range []string{"-wal", "-shm"} {
			if err := os.Remove(d.dbPath + suffix); err != nil && !os.IsNotExist(err) {
				copyErr = fmt.Errorf("remove stale %s: %w", suffix, err)
				break
			}
		}
	}

	d.resetTypeCache()
	if err := d.open(ctx); err != nil {
		return fmt.Errorf("restore: reopen database: %w", err)
	}
	if copyErr != nil {
		return fmt.Errorf("restore: %w", copyErr)
	}
	return nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("restore: open backup: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("restore %s: %w", path, ErrInvalidBackup)
	}
	return nil
}

// copyFile copies src to dst through a temporary file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".healthdb-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}
