package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"vidpipe/internal/services"
	"vidpipe/internal/timecode"
)

// Format is a subtitle serialization.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat accepts "srt", "vtt", or empty (srt).
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	default:
		return "", services.Wrap(services.ErrInputInvalid, "subtitles", "parse format", fmt.Sprintf("unsupported subtitle format %q", value), nil)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatVTT {
		return "vtt"
	}
	return "srt"
}

func (f Format) timecode() timecode.Format {
	if f == FormatVTT {
		return timecode.VTT
	}
	return timecode.SRT
}

// Cue is one numbered entry of a document.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Document is an ordered, contiguously numbered cue sequence.
type Document struct {
	Format Format
	Cues   []Cue
}

// Build converts segments into a document. It fails with services.ErrEmptyDocument
// when no segment carries text.
func Build(segments []Segment, format Format) (Document, error) {
	if format == "" {
		format = FormatSRT
	}
	doc := Document{Format: format, Cues: make([]Cue, 0, len(segments))}
	for _, seg := range segments {
		text := CleanText(seg.Text)
		if text == "" {
			continue
		}
		doc.Cues = append(doc.Cues, Cue{
			Index: len(doc.Cues) + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	if len(doc.Cues) == 0 {
		return Document{}, services.Wrap(
			services.ErrEmptyDocument,
			"subtitles",
			"build",
			fmt.Sprintf("none of %d segments contain text", len(segments)),
			nil,
		)
	}
	return doc, nil
}

// String serializes the document. Each cue is
// "index\nSTART --> END\ntext\n\n"; VTT output starts with a WEBVTT header.
func (d Document) String() string {
	var b strings.Builder
	b.Grow(len(d.Cues) * 64)
	if d.Format == FormatVTT {
		b.WriteString("WEBVTT\n\n")
	}
	tf := d.Format.timecode()
	for _, cue := range d.Cues {
		b.WriteString(strconv.Itoa(cue.Index))
		b.WriteByte('\n')
		b.WriteString(timecode.Encode(cue.Start, tf))
		b.WriteString(" --> ")
		b.WriteString(timecode.Encode(cue.End, tf))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Bytes is String as a byte slice, ready to persist.
func (d Document) Bytes() []byte {
	return []byte(d.String())
}
