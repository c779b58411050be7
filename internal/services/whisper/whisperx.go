package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	langpkg "vidpipe/internal/language"
	"vidpipe/internal/logging"
	"vidpipe/internal/procexec"
)

// Config selects the WhisperX model and hardware.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; pyannote needs HFToken.
	VADMethod string
	HFToken   string
}

const (
	defaultModel = "large-v3"
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"
	vadPyannote  = "pyannote"
	vadSilero    = "silero"
)

// decodeFlags are fixed decoding parameters tuned for sentence-level subtitle
// segments.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "10",
	"--best_of", "10",
	"--temperature", "0.0",
	"--patience", "1.0",
}

// WhisperXEngine runs WhisperX via uvx into a scratch directory.
type WhisperXEngine struct {
	cfg     Config
	runner  procexec.Runner
	scratch ScratchProvider
	logger  *slog.Logger
}

// NewWhisperXEngine creates a WhisperX engine with the given configuration.
func NewWhisperXEngine(cfg Config, runner procexec.Runner, scratch ScratchProvider, logger *slog.Logger) *WhisperXEngine {
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	return &WhisperXEngine{
		cfg:     cfg,
		runner:  runner,
		scratch: scratch,
		logger:  logging.NewComponentLogger(logger, "whisperx"),
	}
}

// Model returns the configured model name for logging.
func (e *WhisperXEngine) Model() string {
	if e.cfg.Model != "" {
		return e.cfg.Model
	}
	return defaultModel
}

// Transcribe runs WhisperX and returns the JSON document it wrote.
func (e *WhisperXEngine) Transcribe(ctx context.Context, videoPath, language string) ([]byte, error) {
	if e.scratch == nil {
		return nil, fmt.Errorf("whisperx: scratch provider required")
	}
	outputDir, err := e.scratch.ScratchDir("whisperx")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outputDir)

	spec := procexec.Spec{
		Name: "uvx",
		Args: e.buildArgs(videoPath, outputDir, language),
	}
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		spec.Env = append(spec.Env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("running whisperx", logging.String("model", e.Model()), logging.Bool("cuda", e.cfg.CUDAEnabled))
	out, err := e.runner.Run(ctx, spec)
	if stderr := strings.TrimSpace(string(out.Stderr)); stderr != "" {
		logger.Debug("whisperx diagnostics", logging.String("stderr", stderr))
	}
	if err != nil {
		return nil, toolError("run whisperx", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	data, err := os.ReadFile(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, toolError("read whisperx output", err)
	}
	return data, nil
}

// buildArgs constructs the uvx command line for WhisperX.
func (e *WhisperXEngine) buildArgs(source, outputDir, language string) []string {
	args := []string{"--index-url", pypiIndexURL}
	device := []string{"--device", "cpu", "--compute_type", "float32"}
	if e.cfg.CUDAEnabled {
		args = []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
		device = []string{"--device", "cuda"}
	}

	args = append(args, "whisperx", source, "--model", e.Model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	vad := e.cfg.VADMethod
	if vad == "" {
		vad = vadSilero
	}
	args = append(args, "--vad_method", vad)
	if vad == vadPyannote && e.cfg.HFToken != "" {
		args = append(args, "--hf_token", e.cfg.HFToken)
	}

	// The hint is a target language, not the spoken one. Whisper can only
	// translate into English, so every other hint leaves detection alone.
	if langpkg.ToISO2(language) == "en" {
		args = append(args, "--task", "translate")
	}
	return append(args, device...)
}
