package accent

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"accent-go/internal/archive"
	"accent-go/internal/model"
)

// ImportResult summarizes a completed import. SkippedRecordings counts takes
// whose owning lesson did not survive restoration; Failures counts records
// that could not be restored but did not abort the import.
type ImportResult struct {
	Lessons           int
	Recordings        int
	SkippedRecordings int
	Failures          int
}

// Import restores a backup archive from r. New records get fresh
// store-assigned identities, payloads are copied into the audio directory
// (built-in lessons under their stable shared name, everything else under a
// fresh unique name), and pre-existing records are never touched.
//
// A missing or corrupt metadata entry fails the whole import with no store
// writes. Per-record failures after that point are logged, counted, and
// skipped. ctx is checked between records; the scratch extraction directory
// is removed on every path out, cancellation included.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	s.logger.Info("import started")

	scratch, err := os.MkdirTemp("", "accent-restore-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	meta, payloads, err := archive.Extract(r, scratch)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if meta == nil {
		return nil, fmt.Errorf("archive has no %s entry: nothing to restore", archive.MetadataEntry)
	}

	placer := s.placer()
	res := &ImportResult{}

	// Old lesson id -> new lesson id. Local to this invocation; the archived
	// identifiers are discarded once the map is built.
	idMap := make(map[int64]int64, len(meta.Lessons))

	for _, archived := range meta.Lessons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		newPath := s.restorePayload(placer, payloads, archived.ReferenceAudioPath, archived.IsBuiltIn, "restored_", res)

		lesson := &model.Lesson{
			Title:              archived.Title,
			Language:           archived.Language,
			Accent:             archived.Accent,
			TextContent:        archived.TextContent,
			ReferenceAudioPath: newPath,
			IsBuiltIn:          archived.IsBuiltIn,
		}
		newID, err := s.lessons.Insert(lesson)
		if err != nil {
			s.logger.Warn("restoring lesson failed", "title", archived.Title, "error", err)
			res.Failures++
			continue
		}
		idMap[archived.ID] = newID
		res.Lessons++
	}

	for _, archived := range meta.Recordings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		newLessonID, ok := idMap[archived.LessonID]
		if !ok {
			// Owning lesson did not map; the take is meaningless. Firm
			// policy: drop it without surfacing an error.
			s.logger.Debug("dropping orphaned recording", "archivedLesson", archived.LessonID)
			res.SkippedRecordings++
			continue
		}

		newPath := s.restorePayload(placer, payloads, archived.AudioPath, false, "restored_rec_", res)

		rec := &model.Recording{
			LessonID:   newLessonID,
			AudioPath:  newPath,
			CreatedAt:  archived.CreatedAt,
			DurationMs: archived.DurationMs,
		}
		if _, err := s.recordings.Insert(rec); err != nil {
			s.logger.Warn("restoring recording failed", "archivedID", archived.ID, "error", err)
			res.Failures++
			continue
		}
		res.Recordings++
	}

	s.recordOperation("import", res.Lessons, res.Recordings)
	s.logger.Info("import complete",
		"lessons", res.Lessons, "recordings", res.Recordings,
		"skipped", res.SkippedRecordings, "failures", res.Failures)
	return res, nil
}

// restorePayload resolves an archived path against the scratch-extracted
// payloads and copies the match into the audio directory. If no payload was
// extracted for the path's basename, the original archived path string is
// kept as a dangling reference. A copy failure falls back to the archived
// path and bumps the failure count; the record itself is still restored.
func (s *Service) restorePayload(placer *Placer, payloads map[string]string, archivedPath string, builtIn bool, prefix string, res *ImportResult) string {
	src, ok := payloads[filepath.Base(archivedPath)]
	if !ok {
		return archivedPath
	}

	policy := AlwaysUniqueName
	if builtIn {
		policy = SharedStableName
	}
	placed, err := placer.Place(src, policy, prefix)
	if err != nil {
		s.logger.Warn("placing restored payload failed", "path", archivedPath, "error", err)
		res.Failures++
		return archivedPath
	}
	return placed
}
