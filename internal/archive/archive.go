// Package archive implements the portable backup container: a zip file whose
// first entry is metadata.json (the full lesson and recording listing at
// export time) followed by the referenced audio payloads under audio/, named
// by basename only.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MetadataEntry is the fixed name of the structured entry. It must stay
	// stable so archives remain importable across installations and versions.
	MetadataEntry = "metadata.json"

	// AudioPrefix is the entry-name prefix for binary payloads.
	AudioPrefix = "audio/"
)

// Metadata is the archive's structured entry. Field names match the original
// export format exactly; changing them breaks previously exported archives.
type Metadata struct {
	Lessons    []LessonRecord    `json:"lessons"`
	Recordings []RecordingRecord `json:"recordings"`
}

// LessonRecord is a lesson as stored in the archive, carrying its export-time
// identifier and original filesystem path as plain strings.
type LessonRecord struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Language           string `json:"language"`
	Accent             string `json:"accent"`
	TextContent        string `json:"textContent"`
	ReferenceAudioPath string `json:"referenceAudioPath"`
	IsBuiltIn          bool   `json:"isBuiltIn"`
}

// RecordingRecord is a recording as stored in the archive.
type RecordingRecord struct {
	ID         int64  `json:"id"`
	LessonID   int64  `json:"lessonId"`
	AudioPath  string `json:"audioPath"`
	CreatedAt  int64  `json:"createdAt"`
	DurationMs int64  `json:"durationMs"`
}

// Write streams a complete archive to w: the metadata entry first, then one
// audio/<basename> entry per payload. payloads maps entry basename to the
// source path on disk; sources that no longer exist are skipped silently, so
// the archive may carry dangling references. Any other I/O failure aborts and
// the partial output must be discarded by the caller.
func Write(w io.Writer, meta *Metadata, payloads map[string]string) error {
	zw := zip.NewWriter(w)

	mw, err := zw.Create(MetadataEntry)
	if err != nil {
		return fmt.Errorf("creating metadata entry: %w", err)
	}
	if err := json.NewEncoder(mw).Encode(meta); err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	// Sorted for a deterministic entry order; the format itself does not
	// require one.
	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := payloads[name]
		f, err := os.Open(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("opening payload %s: %w", src, err)
		}

		ew, err := zw.Create(AudioPrefix + name)
		if err != nil {
			f.Close()
			return fmt.Errorf("creating payload entry %s: %w", name, err)
		}
		if _, err := io.Copy(ew, f); err != nil {
			f.Close()
			return fmt.Errorf("writing payload %s: %w", name, err)
		}
		f.Close()
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// Extract reads an archive from r into scratchDir and returns the decoded
// metadata plus a basename-to-scratch-path map of the extracted payloads.
//
// The zip reader needs random access, so the stream is spooled into
// scratchDir first; entries are then visited in archive order. A missing
// metadata entry yields (nil, payloads, nil) so the caller can report
// "nothing to restore"; a metadata entry that fails to decode is a hard
// error. The caller owns scratchDir and must remove it whatever the outcome.
func Extract(r io.Reader, scratchDir string) (*Metadata, map[string]string, error) {
	spool := filepath.Join(scratchDir, "archive.zip")
	f, err := os.Create(spool)
	if err != nil {
		return nil, nil, fmt.Errorf("creating spool file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("spooling archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing spool file: %w", err)
	}

	zr, err := zip.OpenReader(spool)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	audioDir := filepath.Join(scratchDir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating scratch audio dir: %w", err)
	}

	var meta *Metadata
	payloads := make(map[string]string)

	for _, entry := range zr.File {
		switch {
		case entry.Name == MetadataEntry:
			m, err := readMetadata(entry)
			if err != nil {
				return nil, nil, err
			}
			meta = m
		case strings.HasPrefix(entry.Name, AudioPrefix):
			// Basename only: the archive flattens directory structure, and
			// path.Base also strips anything hostile in a crafted entry name.
			name := path.Base(entry.Name)
			if name == "." || name == "/" {
				continue
			}
			dst := filepath.Join(audioDir, name)
			if err := extractPayload(entry, dst); err != nil {
				return nil, nil, err
			}
			payloads[name] = dst
		}
	}

	return meta, payloads, nil
}

func readMetadata(entry *zip.File) (*Metadata, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("opening metadata entry: %w", err)
	}
	defer rc.Close()

	var m Metadata
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &m, nil
}

func extractPayload(entry *zip.File, dst string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening payload entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	// Overwrite: duplicate basenames collapse, keeping the last entry.
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating scratch payload %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting payload %s: %w", entry.Name, err)
	}
	return out.Close()
}
