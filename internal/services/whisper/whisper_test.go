package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"vidpipe/internal/config"
	"vidpipe/internal/procexec"
	"vidpipe/internal/services"
)

type dirProvider struct{ root string }

func (d dirProvider) ScratchDir(purpose string) (string, error) {
	return os.MkdirTemp(d.root, ".scratch-"+purpose+"-*")
}

func TestScriptEngineReturnsStdoutOnly(t *testing.T) {
	var got procexec.Spec
	runner := procexec.RunnerFunc(func(_ context.Context, spec procexec.Spec) (procexec.Output, error) {
		got = spec
		return procexec.Output{
			Stdout: []byte(`{"segments":[{"start":0,"end":1,"text":"hi"}]}`),
			Stderr: []byte("Loading model...\n"),
		}, nil
	})
	engine := NewScriptEngine("python3", "scripts/transcribe_whisper.py", runner, nil)

	payload, err := engine.Transcribe(context.Background(), "/store/upload-1.mp4", "fr")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if string(payload) != `{"segments":[{"start":0,"end":1,"text":"hi"}]}` {
		t.Fatalf("unexpected payload %q", payload)
	}
	wantArgs := []string{"scripts/transcribe_whisper.py", "/store/upload-1.mp4", "fr"}
	if got.Name != "python3" || !slices.Equal(got.Args, wantArgs) {
		t.Fatalf("unexpected invocation %s", got)
	}
	if !slices.Contains(got.Env, "PYTHONIOENCODING=utf-8") {
		t.Fatalf("expected utf-8 env, got %v", got.Env)
	}
}

func TestScriptEngineOmitsEmptyLanguage(t *testing.T) {
	var args []string
	runner := procexec.RunnerFunc(func(_ context.Context, spec procexec.Spec) (procexec.Output, error) {
		args = spec.Args
		return procexec.Output{Stdout: []byte(`{}`)}, nil
	})
	if _, err := NewScriptEngine("python3", "s.py", runner, nil).Transcribe(context.Background(), "v.mp4", ""); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(args) != 2 {
		t.Fatalf("expected no language argument, got %v", args)
	}
}

func TestScriptEngineWrapsFailures(t *testing.T) {
	runner := procexec.RunnerFunc(func(context.Context, procexec.Spec) (procexec.Output, error) {
		return procexec.Output{ExitCode: 1}, &procexec.ExitError{Name: "python3", ExitCode: 1, Stderr: "ModuleNotFoundError"}
	})
	_, err := NewScriptEngine("python3", "s.py", runner, nil).Transcribe(context.Background(), "v.mp4", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	var exitErr *procexec.ExitError
	if !errors.As(err, &exitErr) || exitErr.Stderr != "ModuleNotFoundError" {
		t.Fatalf("expected exit error detail to be preserved, got %v", err)
	}
}

func TestScriptEnginePassesCancellationThrough(t *testing.T) {
	runner := procexec.RunnerFunc(func(context.Context, procexec.Spec) (procexec.Output, error) {
		return procexec.Output{}, context.Canceled
	})
	_, err := NewScriptEngine("python3", "s.py", runner, nil).Transcribe(context.Background(), "v.mp4", "")
	if !errors.Is(err, context.Canceled) || errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected bare cancellation, got %v", err)
	}
}

func TestWhisperXEngineReadsJSONFromScratch(t *testing.T) {
	root := t.TempDir()
	var outputDir string
	var args []string
	runner := procexec.RunnerFunc(func(_ context.Context, spec procexec.Spec) (procexec.Output, error) {
		args = spec.Args
		idx := slices.Index(spec.Args, "--output_dir")
		outputDir = spec.Args[idx+1]
		payload := []byte(`{"segments":[{"start":0.5,"end":1.5,"text":" hola "}]}`)
		if err := os.WriteFile(filepath.Join(outputDir, "upload-1.json"), payload, 0o644); err != nil {
			t.Fatalf("write fake output: %v", err)
		}
		return procexec.Output{Stdout: []byte("progress noise")}, nil
	})
	engine := NewWhisperXEngine(Config{Model: "small"}, runner, dirProvider{root: root}, nil)

	payload, err := engine.Transcribe(context.Background(), "/store/upload-1.mp4", "es")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if string(payload) != `{"segments":[{"start":0.5,"end":1.5,"text":" hola "}]}` {
		t.Fatalf("unexpected payload %q", payload)
	}
	if _, err := os.Stat(outputDir); !os.IsNotExist(err) {
		t.Fatal("scratch directory should be removed")
	}
	if !containsPair(args, "--output_format", "json") || slices.Contains(args, "--language") {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestWhisperXIgnoresNonEnglishHints(t *testing.T) {
	engine := NewWhisperXEngine(Config{}, nil, nil, nil)
	for _, hint := range []string{"fr", "es", "ja", "auto", ""} {
		args := engine.buildArgs("in.mp4", "/tmp/out", hint)
		if slices.Contains(args, "--language") || slices.Contains(args, "--task") {
			t.Fatalf("hint %q: expected neither --language nor --task, got %v", hint, args)
		}
	}
}

func TestWhisperXEnglishHintTranslates(t *testing.T) {
	engine := NewWhisperXEngine(Config{CUDAEnabled: true, VADMethod: vadPyannote, HFToken: "hf"}, nil, nil, nil)
	args := engine.buildArgs("in.mp4", "/tmp/out", "english")
	if !containsPair(args, "--task", "translate") {
		t.Fatalf("expected translate task, got %v", args)
	}
	if !containsPair(args, "--device", "cuda") || !containsPair(args, "--hf_token", "hf") {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	cfg := config.Default()
	p, err := New(&cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(*ScriptEngine); !ok {
		t.Fatalf("expected script engine, got %T", p)
	}
	cfg.Transcription.Engine = config.EngineWhisperX
	if p, _ = New(&cfg, nil, nil, nil); p == nil {
		t.Fatal("expected whisperx engine")
	}
	if _, ok := p.(*WhisperXEngine); !ok {
		t.Fatalf("expected whisperx engine, got %T", p)
	}
	cfg.Transcription.Engine = "vosk"
	if _, err := New(&cfg, nil, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
