// Package database implements the service store interfaces on SQLite.
package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"accent-go/internal/database/migrations"
)

// SQLiteStore holds the lessons, recordings, and backup_operations tables in
// one SQLite file. The per-table stores returned by Lessons, Recordings and
// Operations share its connection and satisfy the service interfaces.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

// Lessons returns the lesson store backed by this database.
func (s *SQLiteStore) Lessons() *LessonStore { return &LessonStore{db: s.db} }

// Recordings returns the recording store backed by this database.
func (s *SQLiteStore) Recordings() *RecordingStore { return &RecordingStore{db: s.db} }

// Operations returns the backup-operation store backed by this database.
func (s *SQLiteStore) Operations() *OperationStore { return &OperationStore{db: s.db} }

// NewSQLiteStore opens (or creates) the database at path and migrates it to
// the latest schema. path can be ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection. Foreign keys are
// enabled on every pooled connection so recording rows cascade with their
// lesson. An in-memory database is pinned to a single connection, otherwise
// each new pool connection would see its own empty database.
func OpenConnection(path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
