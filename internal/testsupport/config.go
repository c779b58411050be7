package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vidpipe/internal/config"
)

// ConfigOption adjusts a test configuration after defaults are applied.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns config.Default() rooted in a per-test temp directory:
// the store lives in <tmp>/uploads, logs in <tmp>/logs and processor scripts
// are expected under <tmp>/scripts. Translation starts without a key.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ArtifactDir = filepath.Join(base, "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcription.Python = "python3"
	cfg.Transcription.Script = filepath.Join(base, "scripts", "transcribe_whisper.py")
	cfg.Anonymization.Python = "python3"
	cfg.Anonymization.Script = filepath.Join(base, "scripts", "blur_faces.py")
	cfg.Translation.APIKey = ""
	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// WithTranslationKey sets the translation API key and, when given, the endpoint.
func WithTranslationKey(key, baseURL string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Translation.APIKey = key
		if baseURL != "" {
			cfg.Translation.BaseURL = baseURL
		}
	}
}

// WithStubbedBinaries puts no-op executables named names (default ffmpeg,
// ffprobe and python3) first on PATH for the duration of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "python3"}
		}
		bin := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ArtifactDir)
}
