package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vidpipe/internal/config"
	"vidpipe/internal/procexec"
	"vidpipe/internal/services"
)

// Processor produces the raw transcription payload for a video.
// language is an already-normalized hint; empty means auto-detect.
type Processor interface {
	Transcribe(ctx context.Context, videoPath, language string) ([]byte, error)
}

// ScratchProvider hands out private working directories.
type ScratchProvider interface {
	ScratchDir(purpose string) (string, error)
}

// New selects the engine named in cfg.
func New(cfg *config.Config, runner procexec.Runner, scratch ScratchProvider, logger *slog.Logger) (Processor, error) {
	if cfg == nil {
		return nil, errors.New("whisper: config required")
	}
	switch cfg.Transcription.Engine {
	case config.EngineScript:
		return NewScriptEngine(cfg.Transcription.Python, cfg.Transcription.Script, runner, logger), nil
	case config.EngineWhisperX:
		return NewWhisperXEngine(Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDAEnabled,
			VADMethod:   cfg.Transcription.WhisperXVADMethod,
			HFToken:     cfg.Transcription.WhisperXHuggingFace,
		}, runner, scratch, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "select engine",
			fmt.Sprintf("unsupported engine %q", cfg.Transcription.Engine), nil)
	}
}

func toolError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrExternalTool, "transcribe", operation, "speech-to-text processor failed", err)
}
