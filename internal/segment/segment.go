// Package segment turns timestamp-annotated lesson text into an ordered list
// of playback segments used to synchronize text highlighting with audio.
//
// A marker line starts, after trimming, with a bracketed timestamp of the form
// [M:SS] or [MM:SS]; everything after the bracket on the same line belongs to
// the new segment. Lines without a marker continue the current segment.
package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Segment is one (start time, text) span of a lesson script.
type Segment struct {
	StartTimeMs int64
	Text        string
}

// Minute component is 1 or 2 digits, second component exactly 2.
var markerRe = regexp.MustCompile(`^\[(\d{1,2}):(\d{2})\](.*)`)

// Parse splits rawText into time-ordered segments. It is deterministic and
// has no side effects; callers re-run it on every lesson load.
//
// If the text contains no marker at all and parsing would yield at most one
// segment, the whole input is returned verbatim as a single segment starting
// at zero, so plain unannotated scripts are not whitespace-mangled.
func Parse(rawText string) []Segment {
	var segments []Segment
	var acc string
	var startMs int64
	foundMarker := false

	for _, line := range strings.Split(rawText, "\n") {
		m := markerRe.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil {
			foundMarker = true
			if acc != "" {
				segments = append(segments, Segment{StartTimeMs: startMs, Text: strings.TrimSpace(acc)})
			}
			minutes, _ := strconv.ParseInt(m[1], 10, 64)
			seconds, _ := strconv.ParseInt(m[2], 10, 64)
			startMs = (minutes*60 + seconds) * 1000
			acc = strings.TrimSpace(m[3])
			continue
		}
		if acc != "" {
			acc += " " + strings.TrimSpace(line)
		} else {
			acc = strings.TrimSpace(line)
		}
	}

	if acc != "" {
		segments = append(segments, Segment{StartTimeMs: startMs, Text: strings.TrimSpace(acc)})
	}

	if !foundMarker && len(segments) <= 1 {
		return []Segment{{StartTimeMs: 0, Text: rawText}}
	}

	return segments
}
