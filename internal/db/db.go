// Package db is the SQLite store behind the joinalign command: imported
// sample peak lists, alignment run records and the aligned tables they
// produced. The schema is managed with golang-migrate from embedded
// migrations.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrLocked is returned by Lock when another process owns the database.
var ErrLocked = errors.New("database is locked by another joinalign process")

// DB wraps the SQLite handle together with the advisory lock that keeps
// concurrent runs off the same file.
type DB struct {
	*sql.DB
	path string
	lock *flock.Flock
}

// MigrationsFS returns the embedded migrations rooted at the migrations
// directory.
func MigrationsFS() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

// OpenDB opens the database without touching the schema.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite pragmas are per connection; a single connection keeps them
	// in force for every statement.
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	if path != ":memory:" {
		pragmas = append([]string{"PRAGMA journal_mode=WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	d := &DB{DB: sqlDB, path: path}
	if path != ":memory:" {
		d.lock = flock.New(path + ".lock")
	}
	return d, nil
}

// NewDB opens the database and applies any pending migrations.
func NewDB(path string) (*DB, error) {
	d, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := MigrationsFS()
	if err != nil {
		d.Close()
		return nil, err
	}
	if err := d.MigrateUp(migrations); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

// Lock takes the exclusive advisory lock for the database file. An
// in-memory database has nothing to lock.
func (db *DB) Lock() error {
	if db.lock == nil {
		return nil
	}
	ok, err := db.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (db *DB) Unlock() error {
	if db.lock == nil || !db.lock.Locked() {
		return nil
	}
	return db.lock.Unlock()
}

// Close releases the lock and closes the database.
func (db *DB) Close() error {
	unlockErr := db.Unlock()
	if err := db.DB.Close(); err != nil {
		return err
	}
	return unlockErr
}
