package model

import "time"

// Lesson is a single practice unit: a text script with inline timestamp
// markers and a reference audio recording to imitate.
type Lesson struct {
	ID                 int64  `db:"id"`
	Title              string `db:"title"`
	Language           string `db:"language"`
	Accent             string `db:"accent"`
	TextContent        string `db:"text_content"`
	ReferenceAudioPath string `db:"reference_audio_path"` // Absolute path in the audio dir
	IsBuiltIn          bool   `db:"is_built_in"`          // Bundled with the app, not user-created
}

// Recording is one user-recorded take for a lesson.
type Recording struct {
	ID         int64  `db:"id"`
	LessonID   int64  `db:"lesson_id"`
	AudioPath  string `db:"audio_path"`
	CreatedAt  int64  `db:"created_at"`  // Epoch milliseconds
	DurationMs int64  `db:"duration_ms"` // Best-effort; 0 means unknown
}

// BackupOperation records a completed export or import for the history view.
type BackupOperation struct {
	ID         int64     `db:"id"`
	Kind       string    `db:"kind"` // "export" or "import"
	CreatedAt  time.Time `db:"created_at"`
	Lessons    int64     `db:"lessons"`
	Recordings int64     `db:"recordings"`
}
