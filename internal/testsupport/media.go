package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"vidpipe/internal/procexec"
)

// VideoOnlyMarker prefixes fake media files that carry no audio stream.
const VideoOnlyMarker = "video-only"

// FakeMedia is a procexec.Runner that stands in for python scripts, ffmpeg,
// and ffprobe. Fake files are plain text; a file whose content starts with
// VideoOnlyMarker probes as having no audio.
type FakeMedia struct {
	// Transcript is printed on stdout by the transcription script.
	Transcript string
	// TranscriptStderr is printed on stderr by the transcription script.
	TranscriptStderr string

	FailBlur  bool
	FailMux   bool
	FailBurn  bool
	DropAudio bool

	mu    sync.Mutex
	calls []procexec.Spec
	// burned records the subtitle file contents seen at burn time.
	burned []string
}

// Calls returns a copy of every invocation so far.
func (f *FakeMedia) Calls() []procexec.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// BurnedSubtitles returns the subtitle documents read by burn-in calls.
func (f *FakeMedia) BurnedSubtitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.burned)
}

// Run dispatches on the command shape.
func (f *FakeMedia) Run(ctx context.Context, spec procexec.Spec) (procexec.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return procexec.Output{ExitCode: -1}, err
	}

	switch base := filepath.Base(spec.Name); {
	case strings.Contains(base, "ffprobe"):
		return f.probe(spec)
	case strings.Contains(base, "ffmpeg"):
		if slices.Contains(spec.Args, "-vf") {
			return f.burn(spec)
		}
		return f.mux(spec)
	case len(spec.Args) > 0 && strings.Contains(filepath.Base(spec.Args[0]), "blur"):
		return f.blur(spec)
	case len(spec.Args) > 0 && strings.Contains(filepath.Base(spec.Args[0]), "transcribe"):
		return procexec.Output{Stdout: []byte(f.Transcript), Stderr: []byte(f.TranscriptStderr)}, nil
	}
	return procexec.Output{ExitCode: 127}, &procexec.ExitError{Name: spec.Name, ExitCode: 127, Stderr: "unknown fake command"}
}

func (f *FakeMedia) probe(spec procexec.Spec) (procexec.Output, error) {
	path := spec.Args[len(spec.Args)-1]
	data, err := os.ReadFile(path)
	if err != nil {
		return exitFailure(spec.Name, path+": No such file or directory")
	}
	streams := []map[string]any{{"index": 0, "codec_type": "video", "codec_name": "h264"}}
	if !strings.HasPrefix(string(data), VideoOnlyMarker) {
		streams = append(streams, map[string]any{"index": 1, "codec_type": "audio", "codec_name": "aac"})
	}
	payload, _ := json.Marshal(map[string]any{
		"streams": streams,
		"format":  map[string]any{"filename": path, "duration": "5.000000"},
	})
	return procexec.Output{Stdout: payload}, nil
}

func (f *FakeMedia) blur(spec procexec.Spec) (procexec.Output, error) {
	if f.FailBlur || len(spec.Args) < 3 {
		return exitFailure(spec.Name, "face detector crashed")
	}
	in, err := os.ReadFile(spec.Args[1])
	if err != nil {
		return exitFailure(spec.Name, err.Error())
	}
	return writeOutput(spec.Args[2], VideoOnlyMarker+" blurred("+string(in)+")")
}

func (f *FakeMedia) mux(spec procexec.Spec) (procexec.Output, error) {
	if f.FailMux {
		return exitFailure(spec.Name, "Could not find tag for codec")
	}
	out := spec.Args[len(spec.Args)-1]
	video := argAfter(spec.Args, "-i", 0)
	content, err := os.ReadFile(video)
	if err != nil {
		return exitFailure(spec.Name, err.Error())
	}
	body := strings.TrimPrefix(string(content), VideoOnlyMarker+" ")
	if slices.Contains(spec.Args, "1:a:0") && !f.DropAudio {
		return writeOutput(out, "muxed "+body)
	}
	return writeOutput(out, VideoOnlyMarker+" "+body)
}

func (f *FakeMedia) burn(spec procexec.Spec) (procexec.Output, error) {
	filter := argAfter(spec.Args, "-vf", 0)
	name := strings.TrimPrefix(filter, "subtitles=")
	doc, err := os.ReadFile(filepath.Join(spec.Dir, name))
	if err != nil {
		return exitFailure(spec.Name, "Unable to open "+name)
	}
	f.mu.Lock()
	f.burned = append(f.burned, string(doc))
	f.mu.Unlock()
	if f.FailBurn {
		return exitFailure(spec.Name, "Error initializing filter 'subtitles'")
	}
	input := resolve(spec.Dir, argAfter(spec.Args, "-i", 0))
	content, err := os.ReadFile(input)
	if err != nil {
		return exitFailure(spec.Name, err.Error())
	}
	return writeOutput(resolve(spec.Dir, spec.Args[len(spec.Args)-1]), "subbed "+string(content))
}

func argAfter(args []string, flag string, occurrence int) string {
	seen := 0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			if seen == occurrence {
				return args[i+1]
			}
			seen++
		}
	}
	return ""
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

func writeOutput(path, content string) (procexec.Output, error) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return exitFailure("fake", err.Error())
	}
	return procexec.Output{}, nil
}

func exitFailure(name, stderr string) (procexec.Output, error) {
	return procexec.Output{ExitCode: 1, Stderr: []byte(stderr)},
		&procexec.ExitError{Name: name, ExitCode: 1, Stderr: stderr, Err: fmt.Errorf("exit status 1")}
}
