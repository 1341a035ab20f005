package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"accent-go/internal/model"
)

// LessonStore persists lessons.
type LessonStore struct {
	db *sqlx.DB
}

// List returns all lessons in insertion order.
func (s *LessonStore) List() ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := s.db.Select(&lessons, `SELECT * FROM lessons ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	return lessons, nil
}

// Get returns a lesson by id, or nil if it does not exist.
func (s *LessonStore) Get(id int64) (*model.Lesson, error) {
	var lesson model.Lesson
	err := s.db.Get(&lesson, `SELECT * FROM lessons WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting lesson %d: %w", id, err)
	}
	return &lesson, nil
}

// Insert stores a new lesson and returns its assigned id.
func (s *LessonStore) Insert(lesson *model.Lesson) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO lessons (title, language, accent, text_content, reference_audio_path, is_built_in)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		lesson.Title, lesson.Language, lesson.Accent, lesson.TextContent,
		lesson.ReferenceAudioPath, lesson.IsBuiltIn,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting lesson: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted lesson id: %w", err)
	}
	lesson.ID = id
	return id, nil
}

// Update persists all non-identity fields of an existing lesson.
func (s *LessonStore) Update(lesson *model.Lesson) error {
	_, err := s.db.Exec(
		`UPDATE lessons
		 SET title = ?, language = ?, accent = ?, text_content = ?, reference_audio_path = ?, is_built_in = ?
		 WHERE id = ?`,
		lesson.Title, lesson.Language, lesson.Accent, lesson.TextContent,
		lesson.ReferenceAudioPath, lesson.IsBuiltIn, lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lesson %d: %w", lesson.ID, err)
	}
	return nil
}

// Delete removes a lesson; its recordings cascade at the schema level.
func (s *LessonStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM lessons WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting lesson %d: %w", id, err)
	}
	return nil
}

// Count returns the number of lessons.
func (s *LessonStore) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM lessons`); err != nil {
		return 0, fmt.Errorf("counting lessons: %w", err)
	}
	return n, nil
}
