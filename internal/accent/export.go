package accent

import (
	"fmt"
	"io"
	"path/filepath"

	"accent-go/internal/archive"
	"accent-go/internal/model"
)

// ExportResult summarizes a completed export.
type ExportResult struct {
	Lessons    int
	Recordings int
}

// Export snapshots both stores and writes a complete backup archive to w.
// Record identifiers and filesystem paths are written verbatim; remapping
// happens only on import. Referenced files that no longer exist on disk are
// skipped silently and stay in the archive as dangling references.
//
// Any I/O failure aborts the whole export; a partial archive is not valid and
// the caller must discard whatever was written to w.
func (s *Service) Export(w io.Writer) (*ExportResult, error) {
	s.logger.Info("export started")

	lessons, err := s.lessons.List()
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	recordings, err := s.recordings.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}

	meta := buildMetadata(lessons, recordings)

	// Unique referenced paths, flattened to basenames inside the archive.
	// Two distinct paths sharing a basename collapse to one payload, the
	// later one winning. Known lossy edge, accepted by the format.
	payloads := make(map[string]string)
	for _, l := range lessons {
		if l.ReferenceAudioPath != "" {
			payloads[filepath.Base(l.ReferenceAudioPath)] = l.ReferenceAudioPath
		}
	}
	for _, r := range recordings {
		if r.AudioPath != "" {
			payloads[filepath.Base(r.AudioPath)] = r.AudioPath
		}
	}

	if err := archive.Write(w, meta, payloads); err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	s.recordOperation("export", len(lessons), len(recordings))
	s.logger.Info("export complete", "lessons", len(lessons), "recordings", len(recordings))
	return &ExportResult{Lessons: len(lessons), Recordings: len(recordings)}, nil
}

func buildMetadata(lessons []model.Lesson, recordings []model.Recording) *archive.Metadata {
	meta := &archive.Metadata{
		Lessons:    make([]archive.LessonRecord, 0, len(lessons)),
		Recordings: make([]archive.RecordingRecord, 0, len(recordings)),
	}
	for _, l := range lessons {
		meta.Lessons = append(meta.Lessons, archive.LessonRecord{
			ID:                 l.ID,
			Title:              l.Title,
			Language:           l.Language,
			Accent:             l.Accent,
			TextContent:        l.TextContent,
			ReferenceAudioPath: l.ReferenceAudioPath,
			IsBuiltIn:          l.IsBuiltIn,
		})
	}
	for _, r := range recordings {
		meta.Recordings = append(meta.Recordings, archive.RecordingRecord{
			ID:         r.ID,
			LessonID:   r.LessonID,
			AudioPath:  r.AudioPath,
			CreatedAt:  r.CreatedAt,
			DurationMs: r.DurationMs,
		})
	}
	return meta
}
