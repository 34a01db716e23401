// ABOUTME: Sentinel errors returned by the storage engine.
// ABOUTME: Callers match them with errors.Is.
package storage

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidBackup is returned by Restore when the file is not a SQLite database.
	ErrInvalidBackup = errors.New("not a sqlite database")
)
