package accent_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"accent-go/internal/archive"
	"accent-go/internal/model"
	"accent-go/internal/testutil"
)

func TestService_Export_EmptyStore(t *testing.T) {
	svc, _, _ := newTestService(t)

	var buf bytes.Buffer
	res, err := svc.Export(&buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Lessons != 0 || res.Recordings != 0 {
		t.Errorf("result = %+v, want empty", res)
	}

	// An empty export imports back as a no-op.
	svc2, store2, _ := newTestService(t)
	ires, err := svc2.Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if ires.Lessons != 0 || ires.Recordings != 0 {
		t.Errorf("import result = %+v, want empty", ires)
	}
	if n, _ := store2.Lessons().Count(); n != 0 {
		t.Errorf("lesson count after empty import = %d", n)
	}
}

func TestService_Export_VerbatimIdentifiersAndPaths(t *testing.T) {
	svc, store, _ := newTestService(t)

	id, err := store.Lessons().Insert(&model.Lesson{
		Title: "Verbatim", Language: "French", Accent: "Parisian",
		TextContent: "[0:00]Bonjour", ReferenceAudioPath: "/original/install/path.opus",
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := svc.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	meta, _, err := archive.Extract(&buf, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Lessons) != 1 {
		t.Fatalf("archived lessons = %d", len(meta.Lessons))
	}
	got := meta.Lessons[0]
	if got.ID != id {
		t.Errorf("archived id = %d, want export-time id %d", got.ID, id)
	}
	if got.ReferenceAudioPath != "/original/install/path.opus" {
		t.Errorf("archived path = %q, want the original path string", got.ReferenceAudioPath)
	}
}

func TestService_Export_SkipsMissingAudio(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := store.Lessons().Insert(&model.Lesson{
		Title: "Dangling", Language: "English", Accent: "Neutral",
		TextContent: "text", ReferenceAudioPath: "/gone/away.opus",
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := svc.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	meta, payloads, err := archive.Extract(&buf, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Lessons) != 1 {
		t.Errorf("lesson record missing from archive")
	}
	if len(payloads) != 0 {
		t.Errorf("payloads = %v, want none for a missing source", payloads)
	}
}

// Two distinct source paths sharing a basename collapse to a single payload
// inside the archive. This is a documented lossy limitation of the format.
func TestService_Export_BasenameCollisionIsLossy(t *testing.T) {
	svc, store, _ := newTestService(t)

	dirA, dirB := t.TempDir(), t.TempDir()
	pathA := testutil.WriteAudioFile(t, dirA, "clip.opus", "content A")
	pathB := testutil.WriteAudioFile(t, dirB, "clip.opus", "content B")

	for _, p := range []string{pathA, pathB} {
		_, err := store.Lessons().Insert(&model.Lesson{
			Title: "Collision " + p, Language: "English", Accent: "Neutral",
			TextContent: "text", ReferenceAudioPath: p,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := svc.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	meta, payloads, err := archive.Extract(&buf, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Lessons) != 2 {
		t.Fatalf("both lesson records must survive, got %d", len(meta.Lessons))
	}
	if len(payloads) != 1 {
		t.Fatalf("payloads = %d, want exactly one surviving payload", len(payloads))
	}
	data, err := os.ReadFile(payloads["clip.opus"])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content A" && string(data) != "content B" {
		t.Errorf("surviving payload = %q, want one of the two originals", data)
	}
}

func TestService_Export_RecordsHistory(t *testing.T) {
	svc, _, _ := newTestService(t)

	var buf bytes.Buffer
	if _, err := svc.Export(&buf); err != nil {
		t.Fatal(err)
	}

	ops, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != "export" {
		t.Errorf("history = %+v, want one export operation", ops)
	}
}
