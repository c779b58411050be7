package transcribe

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"vidpipe/internal/services"
	"vidpipe/internal/subtitles"
)

type payload struct {
	Segments *[]rawSegment `json:"segments"`
}

type rawSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

// parseSegments decodes the processor payload. It returns the usable segments
// in payload order and the number discarded for bad timing.
func parseSegments(data []byte) ([]subtitles.Segment, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, parseError("empty payload", nil)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var doc payload
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, parseError("decode payload", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, 0, parseError("unexpected data after payload", nil)
	}
	if doc.Segments == nil {
		return nil, 0, parseError("payload has no segments array", nil)
	}

	segments := make([]subtitles.Segment, 0, len(*doc.Segments))
	dropped := 0
	for _, raw := range *doc.Segments {
		if raw.Start == nil || raw.End == nil {
			dropped++
			continue
		}
		seg := subtitles.Segment{Start: *raw.Start, End: *raw.End, Text: subtitles.CleanText(raw.Text)}
		if !seg.Valid() {
			dropped++
			continue
		}
		segments = append(segments, seg)
	}
	return segments, dropped, nil
}

func parseError(message string, err error) error {
	return services.Wrap(services.ErrTranscriptionParse, "transcribe", "parse", message, err)
}
