// Package accent is the orchestration layer coordinating the lesson and
// recording stores, the filesystem, and the backup archiver on behalf of the
// CLI. Collaborators are injected through narrow interfaces; the stores
// provide their own concurrency safety and the service never assumes
// exclusive access.
package accent

import (
	"fmt"
	"os"

	"accent-go/internal/model"
	"accent-go/internal/segment"
)

// LessonStore persists lessons. List returns lessons in insertion order.
type LessonStore interface {
	List() ([]model.Lesson, error)
	Get(id int64) (*model.Lesson, error)
	Insert(lesson *model.Lesson) (int64, error)
	Update(lesson *model.Lesson) error
	Delete(id int64) error
	Count() (int, error)
}

// RecordingStore persists user takes. Deleting a lesson cascades to its
// recordings at the store level.
type RecordingStore interface {
	ListForLesson(lessonID int64) ([]model.Recording, error)
	ListAll() ([]model.Recording, error)
	Insert(rec *model.Recording) (int64, error)
	Delete(id int64) error
}

// OperationStore records backup operations for the history view.
type OperationStore interface {
	Record(op *model.BackupOperation) error
	List(limit int) ([]model.BackupOperation, error)
}

// Service coordinates all high-level operations needed by the CLI.
type Service struct {
	lessons    LessonStore
	recordings RecordingStore
	operations OperationStore
	audioDir   string
	logger     Logger
	clock      Clock
	idgen      IDGenerator
}

// NewService creates a Service with the provided dependencies. audioDir is
// the app-private directory holding all audio payloads.
func NewService(lessons LessonStore, recordings RecordingStore, operations OperationStore, audioDir string, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		lessons:    lessons,
		recordings: recordings,
		operations: operations,
		audioDir:   audioDir,
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
	}
}

// Lessons returns all lessons in insertion order.
func (s *Service) Lessons() ([]model.Lesson, error) {
	return s.lessons.List()
}

// GetLesson returns a lesson by id, or nil if it does not exist.
func (s *Service) GetLesson(id int64) (*model.Lesson, error) {
	return s.lessons.Get(id)
}

// LessonSegments parses a lesson's script into playback segments.
// The segment list is derived, never persisted; it is recomputed on each call.
func (s *Service) LessonSegments(id int64) ([]segment.Segment, error) {
	lesson, err := s.lessons.Get(id)
	if err != nil {
		return nil, fmt.Errorf("loading lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d not found", id)
	}
	return segment.Parse(lesson.TextContent), nil
}

// ImportAudio copies an audio file into the app's audio directory under a
// fresh unique name and returns the new path.
func (s *Service) ImportAudio(src string) (string, error) {
	placer := s.placer()
	path, err := placer.Place(src, AlwaysUniqueName, "")
	if err != nil {
		return "", fmt.Errorf("importing audio: %w", err)
	}
	return path, nil
}

// CreateLesson inserts a new user lesson and returns its assigned id.
func (s *Service) CreateLesson(lesson *model.Lesson) (int64, error) {
	id, err := s.lessons.Insert(lesson)
	if err != nil {
		return 0, fmt.Errorf("creating lesson: %w", err)
	}
	s.logger.Info("lesson created", "id", id, "title", lesson.Title)
	return id, nil
}

// CreateLessonFromFiles copies audioSrc into the audio directory under a
// fresh unique name and inserts a new user-created lesson referencing it.
func (s *Service) CreateLessonFromFiles(title, language, accent, text, audioSrc string) (int64, error) {
	path, err := s.ImportAudio(audioSrc)
	if err != nil {
		return 0, err
	}
	return s.CreateLesson(&model.Lesson{
		Title:              title,
		Language:           language,
		Accent:             accent,
		TextContent:        text,
		ReferenceAudioPath: path,
	})
}

// UpdateLesson persists changes to an existing lesson.
func (s *Service) UpdateLesson(lesson *model.Lesson) error {
	if err := s.lessons.Update(lesson); err != nil {
		return fmt.Errorf("updating lesson: %w", err)
	}
	s.logger.Info("lesson updated", "id", lesson.ID)
	return nil
}

// DeleteLesson removes a lesson, its recordings, and the audio files they
// own. A built-in lesson's reference audio is a shared asset and is left in
// place; a user lesson's reference audio is deleted. File removal failures
// are logged and do not block the row deletion.
func (s *Service) DeleteLesson(id int64) error {
	lesson, err := s.lessons.Get(id)
	if err != nil {
		return fmt.Errorf("loading lesson: %w", err)
	}
	if lesson == nil {
		return fmt.Errorf("lesson %d not found", id)
	}

	recordings, err := s.recordings.ListForLesson(id)
	if err != nil {
		return fmt.Errorf("listing recordings: %w", err)
	}
	for _, rec := range recordings {
		s.removeFile(rec.AudioPath)
	}

	if !lesson.IsBuiltIn {
		s.removeFile(lesson.ReferenceAudioPath)
	}

	// Recording rows cascade with the lesson.
	if err := s.lessons.Delete(id); err != nil {
		return fmt.Errorf("deleting lesson: %w", err)
	}

	s.logger.Info("lesson deleted", "id", id, "title", lesson.Title)
	return nil
}

// AddRecording records a new take for a lesson. The audio file is copied into
// the app's audio directory; CreatedAt is stamped from the service clock.
func (s *Service) AddRecording(lessonID int64, audioSrc string, durationMs int64) (*model.Recording, error) {
	lesson, err := s.lessons.Get(lessonID)
	if err != nil {
		return nil, fmt.Errorf("loading lesson: %w", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d not found", lessonID)
	}

	path, err := s.ImportAudio(audioSrc)
	if err != nil {
		return nil, err
	}

	rec := &model.Recording{
		LessonID:   lessonID,
		AudioPath:  path,
		CreatedAt:  s.clock.Now().UnixMilli(),
		DurationMs: durationMs,
	}
	id, err := s.recordings.Insert(rec)
	if err != nil {
		return nil, fmt.Errorf("saving recording: %w", err)
	}
	rec.ID = id

	s.logger.Info("recording added", "id", id, "lesson", lessonID)
	return rec, nil
}

// RecordingsForLesson returns a lesson's takes, newest first.
func (s *Service) RecordingsForLesson(lessonID int64) ([]model.Recording, error) {
	return s.recordings.ListForLesson(lessonID)
}

// DeleteRecording removes a take and its audio file.
func (s *Service) DeleteRecording(rec *model.Recording) error {
	s.removeFile(rec.AudioPath)
	if err := s.recordings.Delete(rec.ID); err != nil {
		return fmt.Errorf("deleting recording: %w", err)
	}
	s.logger.Info("recording deleted", "id", rec.ID, "lesson", rec.LessonID)
	return nil
}

// History returns the most recent backup operations, newest first.
func (s *Service) History(limit int) ([]model.BackupOperation, error) {
	ops, err := s.operations.List(limit)
	if err != nil {
		return nil, fmt.Errorf("listing backup operations: %w", err)
	}
	return ops, nil
}

func (s *Service) placer() *Placer {
	return &Placer{Dir: s.audioDir, IDGen: s.idgen}
}

func (s *Service) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("removing audio file failed", "path", path, "error", err)
	}
}

// recordOperation persists a history row; failures are logged, never fatal.
func (s *Service) recordOperation(kind string, lessons, recordings int) {
	op := &model.BackupOperation{
		Kind:       kind,
		CreatedAt:  s.clock.Now(),
		Lessons:    int64(lessons),
		Recordings: int64(recordings),
	}
	if err := s.operations.Record(op); err != nil {
		s.logger.Warn("recording backup operation failed", "kind", kind, "error", err)
	}
}
