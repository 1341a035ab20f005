package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// FixedClock always reports the same instant.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }

// SequenceIDGenerator yields "id-1", "id-2", ... deterministically.
type SequenceIDGenerator struct {
	n int
}

func (g *SequenceIDGenerator) New() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

// WriteAudioFile writes an audio fixture and returns its path.
func WriteAudioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
