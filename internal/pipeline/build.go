package pipeline

import (
	"fmt"
	"log/slog"

	"vidpipe/internal/anonymize"
	"vidpipe/internal/artifact"
	"vidpipe/internal/burnin"
	"vidpipe/internal/config"
	"vidpipe/internal/ffmpeg"
	"vidpipe/internal/media/ffprobe"
	"vidpipe/internal/procexec"
	"vidpipe/internal/services/llm"
	"vidpipe/internal/services/whisper"
	"vidpipe/internal/transcribe"
	"vidpipe/internal/translate"
)

// NewFromConfig wires every stage from cfg. A nil runner selects the
// os/exec runner.
func NewFromConfig(cfg *config.Config, store *artifact.Store, runner procexec.Runner, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: artifact store required")
	}
	if runner == nil {
		runner = procexec.NewExecRunner()
	}

	processor, err := whisper.New(cfg, runner, store, logger)
	if err != nil {
		return nil, err
	}
	engine := ffmpeg.New(cfg.FFmpegBinary(), runner)
	prober := ffprobe.NewProber(cfg.FFprobeBinary(), runner)

	stages := Stages{
		Transcriber: transcribe.New(processor, logger),
		Translator: translate.New(llm.NewFromConfig(cfg), translate.Options{
			SourceLanguage: cfg.Translation.SourceLanguage,
			Concurrency:    cfg.Translation.Concurrency,
		}, logger),
		Anonymizer: anonymize.New(store, runner, engine, prober, anonymize.OptionsFromConfig(cfg), logger),
		Burner:     burnin.New(store, engine, logger),
	}
	return New(store, stages, Options{StageTimeout: cfg.StageTimeout()}, logger), nil
}
