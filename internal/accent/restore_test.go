package accent_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accent-go/internal/archive"
	"accent-go/internal/model"
	"accent-go/internal/testutil"
)

// craftArchive builds a backup container directly, bypassing export.
func craftArchive(t *testing.T, meta *archive.Metadata, payloads map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(archive.MetadataEntry)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewEncoder(w).Encode(meta); err != nil {
		t.Fatal(err)
	}
	for name, content := range payloads {
		pw, err := zw.Create(archive.AudioPrefix + name)
		if err != nil {
			t.Fatal(err)
		}
		pw.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestService_Import_RoundTrip(t *testing.T) {
	src, srcStore, srcAudio := newTestService(t)

	ref := testutil.WriteAudioFile(t, srcAudio, "user_ref.opus", "user reference")
	builtinRef := testutil.WriteAudioFile(t, srcAudio, "lesson_01.opus", "bundled reference")
	take := testutil.WriteAudioFile(t, srcAudio, "take.m4a", "first take")

	userID, err := srcStore.Lessons().Insert(&model.Lesson{
		Title: "User Lesson", Language: "English", Accent: "Scottish",
		TextContent: "[0:00]Hi\n[0:04]There", ReferenceAudioPath: ref,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srcStore.Lessons().Insert(&model.Lesson{
		Title: "Lesson 1: Greetings", Language: "English", Accent: "Neutral",
		TextContent: "[0:00]Hello", ReferenceAudioPath: builtinRef, IsBuiltIn: true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := srcStore.Recordings().Insert(&model.Recording{
		LessonID: userID, AudioPath: take, CreatedAt: 1700000000000, DurationMs: 3500,
	}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := src.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst, dstStore, dstAudio := newTestService(t)
	res, err := dst.Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Lessons != 2 || res.Recordings != 1 || res.SkippedRecordings != 0 || res.Failures != 0 {
		t.Fatalf("result = %+v", res)
	}

	lessons, err := dstStore.Lessons().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(lessons) != 2 {
		t.Fatalf("restored lessons = %d", len(lessons))
	}

	var user, builtin *model.Lesson
	for i := range lessons {
		if lessons[i].IsBuiltIn {
			builtin = &lessons[i]
		} else {
			user = &lessons[i]
		}
	}
	if user == nil || builtin == nil {
		t.Fatalf("restored lessons = %+v", lessons)
	}

	// Non-identity fields preserved exactly; identities freshly assigned.
	if user.Title != "User Lesson" || user.Language != "English" || user.Accent != "Scottish" ||
		user.TextContent != "[0:00]Hi\n[0:04]There" {
		t.Errorf("user lesson fields = %+v", user)
	}

	// User payload lands under a fresh salted name, never the bare basename.
	if filepath.Dir(user.ReferenceAudioPath) != dstAudio {
		t.Errorf("user audio not in destination audio dir: %s", user.ReferenceAudioPath)
	}
	base := filepath.Base(user.ReferenceAudioPath)
	if !strings.HasPrefix(base, "restored_") || !strings.HasSuffix(base, "_user_ref.opus") {
		t.Errorf("user audio name = %s, want restored_<salt>_user_ref.opus", base)
	}
	if data, _ := os.ReadFile(user.ReferenceAudioPath); string(data) != "user reference" {
		t.Errorf("user audio content = %q", data)
	}

	// Built-in payload keeps its stable shared name.
	if builtin.ReferenceAudioPath != filepath.Join(dstAudio, "lesson_01.opus") {
		t.Errorf("built-in audio path = %s", builtin.ReferenceAudioPath)
	}
	if data, _ := os.ReadFile(builtin.ReferenceAudioPath); string(data) != "bundled reference" {
		t.Errorf("built-in audio content = %q", data)
	}

	recs, err := dstStore.Recordings().ListForLesson(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("restored recordings = %d, want remapped to new lesson id", len(recs))
	}
	if recs[0].CreatedAt != 1700000000000 || recs[0].DurationMs != 3500 {
		t.Errorf("recording fields = %+v", recs[0])
	}
	recBase := filepath.Base(recs[0].AudioPath)
	if !strings.HasPrefix(recBase, "restored_rec_") {
		t.Errorf("recording audio name = %s, want restored_rec_ prefix", recBase)
	}
}

func TestService_Import_OrphanedRecordingIsDropped(t *testing.T) {
	svc, store, _ := newTestService(t)

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			{ID: 1, Title: "Kept", Language: "English", Accent: "Neutral",
				TextContent: "text", ReferenceAudioPath: "/old/a.opus"},
		},
		Recordings: []archive.RecordingRecord{
			{ID: 10, LessonID: 1, AudioPath: "/old/take1.m4a", CreatedAt: 1, DurationMs: 1},
			{ID: 11, LessonID: 999, AudioPath: "/old/take2.m4a", CreatedAt: 2, DurationMs: 2},
		},
	}, nil)

	res, err := svc.Import(context.Background(), buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Lessons != 1 || res.Recordings != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.SkippedRecordings != 1 {
		t.Errorf("SkippedRecordings = %d, want 1", res.SkippedRecordings)
	}

	all, err := store.Recordings().ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("stored recordings = %+v, orphan must be absent", all)
	}
}

func TestService_Import_DanglingReferenceKeepsArchivedPath(t *testing.T) {
	svc, store, _ := newTestService(t)

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			{ID: 1, Title: "Dangling", Language: "English", Accent: "Neutral",
				TextContent: "text", ReferenceAudioPath: "/old/install/missing.opus"},
		},
	}, nil)

	if _, err := svc.Import(context.Background(), buf); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	lessons, _ := store.Lessons().List()
	if len(lessons) != 1 {
		t.Fatalf("lessons = %d", len(lessons))
	}
	if lessons[0].ReferenceAudioPath != "/old/install/missing.opus" {
		t.Errorf("path = %q, want the archived string kept as-is", lessons[0].ReferenceAudioPath)
	}
}

func TestService_Import_NoMetadataFails(t *testing.T) {
	svc, store, _ := newTestService(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("audio/stray.opus")
	w.Write([]byte("stray"))
	zw.Close()

	if _, err := svc.Import(context.Background(), &buf); err == nil {
		t.Fatal("Import() without metadata: expected error")
	}
	if n, _ := store.Lessons().Count(); n != 0 {
		t.Errorf("store changed by failed import: %d lessons", n)
	}
}

func TestService_Import_CorruptMetadataFails(t *testing.T) {
	svc, store, _ := newTestService(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create(archive.MetadataEntry)
	w.Write([]byte(`{"lessons": [{]`))
	zw.Close()

	if _, err := svc.Import(context.Background(), &buf); err == nil {
		t.Fatal("Import() with corrupt metadata: expected error")
	}
	if n, _ := store.Lessons().Count(); n != 0 {
		t.Errorf("store changed by failed import: %d lessons", n)
	}

	// The scratch extraction directory is removed even on the error path.
	leftovers, err := filepath.Glob(filepath.Join(os.TempDir(), "accent-restore-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("scratch directories left behind: %v", leftovers)
	}
}

func TestService_Import_NeverMutatesExistingRecords(t *testing.T) {
	svc, store, _ := newTestService(t)

	existingID, err := store.Lessons().Insert(&model.Lesson{
		Title: "Pre-existing", Language: "German", Accent: "Bavarian",
		TextContent: "keep me", ReferenceAudioPath: "/keep/me.opus",
	})
	if err != nil {
		t.Fatal(err)
	}

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			// Same export-time id as the pre-existing row.
			{ID: existingID, Title: "Imported", Language: "English", Accent: "Neutral",
				TextContent: "new", ReferenceAudioPath: "/old/b.opus"},
		},
	}, nil)

	if _, err := svc.Import(context.Background(), buf); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	existing, _ := store.Lessons().Get(existingID)
	if existing == nil || existing.Title != "Pre-existing" || existing.TextContent != "keep me" {
		t.Errorf("pre-existing lesson mutated: %+v", existing)
	}
	if n, _ := store.Lessons().Count(); n != 2 {
		t.Errorf("lesson count = %d, want 2", n)
	}
}

func TestService_Import_TwiceNeverOverwritesUserAudio(t *testing.T) {
	svc, store, audioDir := newTestService(t)

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			{ID: 1, Title: "Twice", Language: "English", Accent: "Neutral",
				TextContent: "text", ReferenceAudioPath: "/old/clip.opus"},
		},
	}, map[string]string{"clip.opus": "payload"})

	raw := buf.Bytes()
	if _, err := svc.Import(context.Background(), bytes.NewReader(raw)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Import(context.Background(), bytes.NewReader(raw)); err != nil {
		t.Fatal(err)
	}

	lessons, _ := store.Lessons().List()
	if len(lessons) != 2 {
		t.Fatalf("lessons = %d, want one per import", len(lessons))
	}
	if lessons[0].ReferenceAudioPath == lessons[1].ReferenceAudioPath {
		t.Errorf("both imports share the audio path %s", lessons[0].ReferenceAudioPath)
	}

	entries, err := os.ReadDir(audioDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("audio dir entries = %d, want a fresh file per import", len(entries))
	}
}

func TestService_Import_BuiltInPlacementIsIdempotent(t *testing.T) {
	svc, _, audioDir := newTestService(t)

	// The shared asset already exists with known content.
	asset := testutil.WriteAudioFile(t, audioDir, "lesson_01.opus", "installed asset")

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			{ID: 1, Title: "Lesson 1", Language: "English", Accent: "Neutral",
				TextContent: "text", ReferenceAudioPath: "/old/lesson_01.opus", IsBuiltIn: true},
		},
	}, map[string]string{"lesson_01.opus": "archived asset"})

	if _, err := svc.Import(context.Background(), buf); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(asset)
	if string(data) != "installed asset" {
		t.Errorf("shared asset overwritten: %q", data)
	}
}

func TestService_Import_Cancelled(t *testing.T) {
	svc, store, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := craftArchive(t, &archive.Metadata{
		Lessons: []archive.LessonRecord{
			{ID: 1, Title: "Never", Language: "English", Accent: "Neutral",
				TextContent: "text", ReferenceAudioPath: "/old/a.opus"},
		},
	}, nil)

	if _, err := svc.Import(ctx, buf); err == nil {
		t.Fatal("Import() with cancelled context: expected error")
	}
	if n, _ := store.Lessons().Count(); n != 0 {
		t.Errorf("store changed by cancelled import: %d lessons", n)
	}
}
