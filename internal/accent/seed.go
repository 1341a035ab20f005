package accent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"accent-go/internal/catalog"
	"accent-go/internal/fsutil"
	"accent-go/internal/model"
)

// SeedBuiltins installs the bundled lesson catalog. It is idempotent: a
// catalog entry whose title already appears in an existing lesson title is
// skipped, and audio assets are only written when absent, so repeated runs
// (fresh installs, reinstalls) never duplicate. Returns the number of lessons
// inserted.
func (s *Service) SeedBuiltins() (int, error) {
	entries, err := catalog.Load()
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}

	existing, err := s.lessons.List()
	if err != nil {
		return 0, fmt.Errorf("listing lessons: %w", err)
	}

	seeded := 0
	for _, entry := range entries {
		if titleExists(existing, entry.Title) {
			continue
		}
		if err := s.seedOne(entry); err != nil {
			// Best effort per lesson, same as the delete and import paths.
			s.logger.Warn("seeding lesson failed", "title", entry.Title, "error", err)
			continue
		}
		seeded++
	}

	if seeded > 0 {
		s.logger.Info("built-in lessons seeded", "count", seeded)
	}
	return seeded, nil
}

func (s *Service) seedOne(entry catalog.Entry) error {
	text, err := entry.Text()
	if err != nil {
		return err
	}

	audioPath := filepath.Join(s.audioDir, entry.AudioAsset)
	if !fsutil.Exists(audioPath) {
		audio, err := entry.Audio()
		if err != nil {
			return err
		}
		if err := fsutil.EnsureDir(s.audioDir); err != nil {
			return err
		}
		if err := os.WriteFile(audioPath, audio, 0644); err != nil {
			return fmt.Errorf("writing audio asset: %w", err)
		}
	}

	lesson := &model.Lesson{
		Title:              entry.Title,
		Language:           entry.Language,
		Accent:             entry.Accent,
		TextContent:        text,
		ReferenceAudioPath: audioPath,
		IsBuiltIn:          true,
	}
	if _, err := s.lessons.Insert(lesson); err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}
	return nil
}

func titleExists(lessons []model.Lesson, title string) bool {
	for _, l := range lessons {
		if strings.Contains(l.Title, title) {
			return true
		}
	}
	return false
}
