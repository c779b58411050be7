package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vidpipe/internal/procexec"
)

// Engine runs ffmpeg through a procexec.Runner.
type Engine struct {
	binary string
	runner procexec.Runner
}

// New returns an engine for binary (default "ffmpeg").
func New(binary string, runner procexec.Runner) *Engine {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	return &Engine{binary: binary, runner: runner}
}

// Binary returns the configured executable.
func (e *Engine) Binary() string {
	return e.binary
}

// MuxSpec describes a video-from-one, audio-from-another remux.
type MuxSpec struct {
	Video string
	// AudioSource supplies the first audio stream. Empty produces a
	// video-only copy.
	AudioSource string
	Output      string
}

// Mux copies the first video stream of spec.Video and transcodes the first
// audio stream of spec.AudioSource to AAC.
func (e *Engine) Mux(ctx context.Context, spec MuxSpec) error {
	if strings.TrimSpace(spec.Video) == "" || strings.TrimSpace(spec.Output) == "" {
		return errors.New("ffmpeg mux: invalid path")
	}
	_, err := e.runner.Run(ctx, procexec.Spec{Name: e.binary, Args: muxArgs(spec)})
	if err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

func muxArgs(spec MuxSpec) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", spec.Video}
	if spec.AudioSource != "" {
		args = append(args, "-i", spec.AudioSource,
			"-map", "0:v:0", "-map", "1:a:0",
			"-c:v", "copy", "-c:a", "aac", "-shortest")
	} else {
		args = append(args, "-map", "0:v:0", "-c:v", "copy", "-an")
	}
	if format := outputFormatForPath(spec.Output); format != "" {
		args = append(args, "-f", format)
	}
	return append(args, spec.Output)
}

// BurnSpec describes a subtitle burn-in. Subtitle must be a bare file name
// inside Dir; ffmpeg runs with Dir as its working directory.
type BurnSpec struct {
	Dir      string
	Input    string
	Subtitle string
	Output   string
}

// BurnSubtitles renders spec.Subtitle into the video stream and copies audio.
func (e *Engine) BurnSubtitles(ctx context.Context, spec BurnSpec) error {
	if strings.TrimSpace(spec.Dir) == "" || strings.TrimSpace(spec.Input) == "" || strings.TrimSpace(spec.Output) == "" {
		return errors.New("ffmpeg burn: invalid path")
	}
	if err := ValidateFilterName(spec.Subtitle); err != nil {
		return err
	}
	_, err := e.runner.Run(ctx, procexec.Spec{Name: e.binary, Args: burnArgs(spec), Dir: spec.Dir})
	if err != nil {
		return fmt.Errorf("ffmpeg burn: %w", err)
	}
	return nil
}

func burnArgs(spec BurnSpec) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-i", spec.Input,
		"-vf", "subtitles=" + spec.Subtitle,
		"-c:a", "copy",
	}
	if format := outputFormatForPath(spec.Output); format != "" {
		args = append(args, "-f", format)
	}
	return append(args, spec.Output)
}

// filterReserved are characters with meaning inside a filtergraph argument.
const filterReserved = `:'\,[];=`

// ValidateFilterName rejects names that would need escaping inside the
// subtitles filter, including anything with a directory or volume component.
func ValidateFilterName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("ffmpeg burn: invalid subtitle name %q", name)
	}
	if strings.ContainsAny(name, "/"+filterReserved) || filepath.Base(name) != name {
		return fmt.Errorf("ffmpeg burn: subtitle name %q must be a bare file name without filter metacharacters", name)
	}
	return nil
}

func outputFormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv", ".mk3d":
		return "matroska"
	case ".mp4", ".m4v":
		return "mp4"
	case ".mov":
		return "mov"
	case ".webm":
		return "webm"
	case ".ts", ".m2ts":
		return "mpegts"
	default:
		return ""
	}
}
