package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// prettyHandler writes a one-line header per record followed by indented
// "- key: value" lines. Component, artifact and stage are lifted into the
// header instead of being listed.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	attrs     []slog.Attr
	groups    []string
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

type header struct {
	component string
	artifact  string
	stage     string
}

func (hd *header) absorb(key string, value slog.Value) bool {
	var slot *string
	switch key {
	case FieldComponent:
		slot = &hd.component
	case FieldArtifactID:
		slot = &hd.artifact
	case FieldStage:
		slot = &hd.stage
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(value.String())
	}
	return true
}

func (hd header) subject() string {
	artifact := hd.artifact
	if len(artifact) > 8 {
		artifact = artifact[:8]
	}
	switch {
	case artifact != "" && hd.stage != "":
		return fmt.Sprintf("Artifact %s (%s)", artifact, hd.stage)
	case artifact != "":
		return "Artifact " + artifact
	}
	return hd.stage
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var fields []field
	for _, a := range h.attrs {
		fields = appendField(fields, h.groups, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.groups, a)
		return true
	})

	var hd header
	rest := fields[:0]
	for _, f := range fields {
		if !hd.absorb(f.key, f.value) {
			rest = append(rest, f)
		}
	}
	rest = lastWins(rest)

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ts.Format("2006-01-02 15:04:05"), levelLabel(record.Level))
	if hd.component != "" {
		fmt.Fprintf(&b, " [%s]", hd.component)
	}
	if subject := hd.subject(); subject != "" {
		b.WriteString(" " + subject)
	}
	b.WriteString(" | " + msg)
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
	for _, f := range rest {
		fmt.Fprintf(&b, "    - %s: %s\n", f.key, renderValue(f.value))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

type field struct {
	key   string
	value slog.Value
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, groups []string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(append([]string(nil), groups...), a.Key)
		}
		for _, member := range a.Value.Group() {
			dst = appendField(dst, groups, member)
		}
		return dst
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, field{key: key, value: a.Value})
}

// lastWins keeps the first position of each key with its latest value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		if v.String() == "" {
			return `""`
		}
		return v.String()
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
