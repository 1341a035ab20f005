package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"accent-go/internal/model"
)

// RecordingStore persists user takes.
type RecordingStore struct {
	db *sqlx.DB
}

// ListForLesson returns a lesson's recordings, newest first.
func (s *RecordingStore) ListForLesson(lessonID int64) ([]model.Recording, error) {
	var recs []model.Recording
	err := s.db.Select(&recs,
		`SELECT * FROM recordings WHERE lesson_id = ? ORDER BY created_at DESC`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("listing recordings for lesson %d: %w", lessonID, err)
	}
	return recs, nil
}

// ListAll returns every recording. No ordering contract.
func (s *RecordingStore) ListAll() ([]model.Recording, error) {
	var recs []model.Recording
	if err := s.db.Select(&recs, `SELECT * FROM recordings`); err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	return recs, nil
}

// Insert stores a new recording and returns its assigned id.
func (s *RecordingStore) Insert(rec *model.Recording) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO recordings (lesson_id, audio_path, created_at, duration_ms)
		 VALUES (?, ?, ?, ?)`,
		rec.LessonID, rec.AudioPath, rec.CreatedAt, rec.DurationMs,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting recording: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted recording id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Delete removes a recording.
func (s *RecordingStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM recordings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting recording %d: %w", id, err)
	}
	return nil
}
