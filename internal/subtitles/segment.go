package subtitles

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Segment is a timed span of transcript text. Offsets are seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Valid reports whether the timing satisfies 0 <= start < end.
func (s Segment) Valid() bool {
	return s.Start >= 0 && s.End > s.Start
}

// CleanText returns the text as it will appear in a cue.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	return norm.NFC.String(strings.TrimSpace(text))
}

// JoinText concatenates non-empty segment texts with single spaces.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := CleanText(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Clone copies a segment slice so callers can replace text without aliasing.
func Clone(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}
