package ffprobe

import (
	"context"
	"strings"
	"testing"

	"vidpipe/internal/procexec"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "Audio"},
		},
		Format: Format{Duration: "123.45", Size: "1000"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
}

func TestProberParsesStdoutOnly(t *testing.T) {
	var got procexec.Spec
	runner := procexec.RunnerFunc(func(_ context.Context, spec procexec.Spec) (procexec.Output, error) {
		got = spec
		return procexec.Output{
			Stdout: []byte(`{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"5.000000"}}`),
			Stderr: []byte("[mov,mp4] stray warning"),
		}, nil
	})

	result, err := NewProber("/opt/ffprobe", runner).Inspect(context.Background(), "/store/blurred-1.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !result.HasAudio() || result.AudioStreamCount() != 1 || result.DurationSeconds() != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got.Name != "/opt/ffprobe" || got.Args[len(got.Args)-1] != "/store/blurred-1.mp4" {
		t.Fatalf("unexpected invocation %s", got)
	}
}

func TestProberErrors(t *testing.T) {
	failing := procexec.RunnerFunc(func(context.Context, procexec.Spec) (procexec.Output, error) {
		return procexec.Output{ExitCode: 1}, &procexec.ExitError{Name: "ffprobe", ExitCode: 1, Stderr: "No such file"}
	})
	if _, err := NewProber("", failing).Inspect(context.Background(), "missing.mp4"); err == nil || !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	if _, err := NewProber("", failing).Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
	garbage := procexec.RunnerFunc(func(context.Context, procexec.Spec) (procexec.Output, error) {
		return procexec.Output{Stdout: []byte("not json")}, nil
	})
	if _, err := NewProber("", garbage).Inspect(context.Background(), "a.mp4"); err == nil {
		t.Fatal("expected parse error")
	}
}
