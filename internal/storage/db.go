// ABOUTME: SQLite database connection and lifecycle management.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required) and goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	db     *sql.DB
	dbPath string

	mu    sync.Mutex
	types map[string]struct{}
}

// Open opens or creates a SQLite database at the given path and applies any
// pending migrations.
func Open(dbPath string) (*DB, error) {
	d := &DB{dbPath: dbPath, types: make(map[string]struct{})}
	if err := d.open(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) open(ctx context.Context) error {
	// Ensure parent directory exists
	dir := filepath.Dir(d.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", d.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// One connection keeps the pragmas in force and serializes writers.
	db.SetMaxOpenConns(1)

	if err := configurePragmas(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("configure pragmas: %w", err)
	}

	// Set file permissions
	if err := os.Chmod(d.dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return fmt.Errorf("set database permissions: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("initialize schema: %w", err)
	}

	d.db = db
	return nil
}

// DataDir returns the default data directory following the XDG base directory layout.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "healthdb")
}

// DefaultDBPath returns the default database path following the XDG base directory layout.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "health.db")
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// configurePragmas sets up SQLite for bulk ingestion followed by reads.
func configurePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}
