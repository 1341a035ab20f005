package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"accent-go/internal/model"
)

// OperationStore persists the backup history.
type OperationStore struct {
	db *sqlx.DB
}

// Record stores a completed backup operation.
func (s *OperationStore) Record(op *model.BackupOperation) error {
	res, err := s.db.Exec(
		`INSERT INTO backup_operations (kind, created_at, lessons, recordings)
		 VALUES (?, ?, ?, ?)`,
		op.Kind, op.CreatedAt, op.Lessons, op.Recordings,
	)
	if err != nil {
		return fmt.Errorf("inserting backup operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted operation id: %w", err)
	}
	op.ID = id
	return nil
}

// List returns the most recent backup operations, newest first.
func (s *OperationStore) List(limit int) ([]model.BackupOperation, error) {
	var ops []model.BackupOperation
	err := s.db.Select(&ops,
		`SELECT * FROM backup_operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing backup operations: %w", err)
	}
	return ops, nil
}
