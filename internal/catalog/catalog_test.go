package catalog

import (
	"bytes"
	"testing"

	"accent-go/internal/segment"
)

func TestLoad(t *testing.T) {
	entries, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("catalog is empty")
	}

	seen := map[string]bool{}
	for _, e := range entries {
		if e.Title == "" || e.Language == "" || e.Accent == "" {
			t.Errorf("entry missing fields: %+v", e)
		}
		if seen[e.Title] {
			t.Errorf("duplicate title %q", e.Title)
		}
		seen[e.Title] = true
	}
}

func TestEntry_AssetsReadable(t *testing.T) {
	entries, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		t.Run(e.Title, func(t *testing.T) {
			text, err := e.Text()
			if err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			if text == "" {
				t.Error("empty script")
			}

			audio, err := e.Audio()
			if err != nil {
				t.Fatalf("Audio() error = %v", err)
			}
			if len(audio) == 0 {
				t.Error("empty audio asset")
			}
			if !bytes.HasPrefix(audio, []byte("OggS")) {
				t.Error("audio asset is not an Ogg container")
			}
		})
	}
}

func TestEntry_ScriptsHaveTimestampMarkers(t *testing.T) {
	entries, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		text, err := e.Text()
		if err != nil {
			t.Fatal(err)
		}
		segments := segment.Parse(text)
		if len(segments) < 2 {
			t.Errorf("%s: script parses to %d segments, scripts should carry markers", e.Title, len(segments))
		}
	}
}
