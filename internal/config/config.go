package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains artifact store and log locations.
type Paths struct {
	ArtifactDir   string `toml:"artifact_dir"`
	LogDir        string `toml:"log_dir"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Transcription selects and configures the speech-to-text processor.
type Transcription struct {
	// Engine is "script" (python helper printing JSON on stdout) or "whisperx".
	Engine              string `toml:"engine"`
	Python              string `toml:"python"`
	Script              string `toml:"script"`
	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
	WhisperXVADMethod   string `toml:"whisperx_vad_method"`
	WhisperXHuggingFace string `toml:"whisperx_hf_token"`
}

// Translation configures the chat-completions endpoint used per segment.
type Translation struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	SourceLanguage string `toml:"source_language"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Anonymization configures the face-blur processor.
type Anonymization struct {
	Python string `toml:"python"`
	Script string `toml:"script"`
	// AllowVideoOnlyFallback keeps the blurred clip without audio when the
	// remux fails. The result is marked degraded.
	AllowVideoOnlyFallback bool `toml:"allow_video_only_fallback"`
}

// FFmpeg names the filter engine binaries.
type FFmpeg struct {
	FFmpegBinary  string `toml:"ffmpeg"`
	FFprobeBinary string `toml:"ffprobe"`
}

// Pipeline contains orchestration limits.
type Pipeline struct {
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidpipe.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Anonymization Anonymization `toml:"anonymization"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns ~/.config/vidpipe/config.toml expanded.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads, normalizes and validates the configuration. An explicit path
// that does not exist yields defaults with exists false. Without a path the
// user config is tried before ./vidpipe.toml. The resolved path is returned
// in both cases.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, "vidpipe.toml"}
	}
	var first string
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			if path != "" {
				return "", false, fmt.Errorf("stat config: %w", err)
			}
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the artifact and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArtifactDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for muxing and burn-in.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.FFmpeg.FFmpegBinary); v != "" {
		return v
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for stream inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.FFmpeg.FFprobeBinary); v != "" {
		return v
	}
	return defaultFFprobeBinary
}

// StageTimeout returns the per-stage deadline applied by the orchestrator.
// Zero disables the deadline.
func (c *Config) StageTimeout() time.Duration {
	if c.Pipeline.StageTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Pipeline.StageTimeoutSeconds) * time.Second
}

// TranslationTimeout bounds a single translation request.
func (c *Config) TranslationTimeout() time.Duration {
	if c.Translation.TimeoutSeconds <= 0 {
		return time.Duration(defaultTranslationTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Translation.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// expandCommand expands values that look like paths and leaves bare
// executable names for PATH lookup.
func expandCommand(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !strings.ContainsAny(value, `/\~`) {
		return value, nil
	}
	return expandPath(value)
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML with secrets redacted.
func (c *Config) Encode() ([]byte, error) {
	clone := *c
	if clone.Translation.APIKey != "" {
		clone.Translation.APIKey = redacted
	}
	if clone.Transcription.WhisperXHuggingFace != "" {
		clone.Transcription.WhisperXHuggingFace = redacted
	}
	return toml.Marshal(clone)
}
