package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vidpipe/internal/procexec"
)

// Result is the subset of `ffprobe -show_streams -show_format` output the
// pipeline reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one elementary stream.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Channels  int    `json:"channels,omitempty"`
}

// Format holds container metadata. Numeric fields arrive as strings.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// Prober runs ffprobe through a procexec.Runner.
type Prober struct {
	binary string
	runner procexec.Runner
}

// NewProber returns a prober for binary (default "ffprobe").
func NewProber(binary string, runner procexec.Runner) *Prober {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	return &Prober{binary: binary, runner: runner}
}

// Inspect decodes the JSON ffprobe writes to stdout. Stderr only surfaces
// through the runner's error.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	out, err := p.runner.Run(ctx, procexec.Spec{
		Name: p.binary,
		Args: []string{"-v", "error", "-hide_banner", "-of", "json", "-show_format", "-show_streams", "--", path},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	var result Result
	if err := json.Unmarshal(out.Stdout, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

func (r Result) count(codecType string) int {
	n := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, codecType) {
			n++
		}
	}
	return n
}

// VideoStreamCount returns the number of video streams.
func (r Result) VideoStreamCount() int { return r.count("video") }

// AudioStreamCount returns the number of audio streams.
func (r Result) AudioStreamCount() int { return r.count("audio") }

// HasAudio reports whether at least one audio stream is present.
func (r Result) HasAudio() bool { return r.AudioStreamCount() > 0 }

// DurationSeconds returns the container duration, or 0 when absent or invalid.
func (r Result) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// SizeBytes returns the container size, or 0 when absent or invalid.
func (r Result) SizeBytes() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Format.Size), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
