package anonymize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
	"vidpipe/internal/deps"
	"vidpipe/internal/ffmpeg"
	"vidpipe/internal/fileutil"
	"vidpipe/internal/logging"
	"vidpipe/internal/media/ffprobe"
	"vidpipe/internal/procexec"
	"vidpipe/internal/services"
	"vidpipe/internal/stage"
)

// Options configure the stage.
type Options struct {
	Python string
	Script string
	// AllowVideoOnlyFallback keeps a silent result when the remux fails.
	AllowVideoOnlyFallback bool
}

// OptionsFromConfig reads the [anonymization] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Python:                 cfg.Anonymization.Python,
		Script:                 cfg.Anonymization.Script,
		AllowVideoOnlyFallback: cfg.Anonymization.AllowVideoOnlyFallback,
	}
}

// Result is the outcome of one anonymization.
type Result struct {
	Final        artifact.Artifact
	Intermediate artifact.Artifact
	// Degraded is set when Final is the video-only fallback.
	Degraded bool
	// SourceHasAudio reports whether the original carried audio.
	SourceHasAudio bool
}

// Stage runs the blur script and the audio remux.
type Stage struct {
	store  *artifact.Store
	runner procexec.Runner
	ffmpeg *ffmpeg.Engine
	probe  *ffprobe.Prober
	opts   Options
	logger *slog.Logger
}

// New constructs the stage. The same runner drives the script, ffmpeg, and ffprobe.
func New(store *artifact.Store, runner procexec.Runner, engine *ffmpeg.Engine, prober *ffprobe.Prober, opts Options, logger *slog.Logger) *Stage {
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	return &Stage{
		store:  store,
		runner: runner,
		ffmpeg: engine,
		probe:  prober,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "anonymize"),
	}
}

// Anonymize blurs faces in source and returns the new final artifact.
func (s *Stage) Anonymize(ctx context.Context, source artifact.Artifact) (Result, error) {
	if !source.IsVideo() || strings.TrimSpace(source.Path) == "" {
		return Result{}, services.Wrap(services.ErrInputInvalid, "anonymize", "validate input", "source video required", nil)
	}
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()
	ext := videoExt(source)

	intermediate, err := s.blur(ctx, source, ext)
	if err != nil {
		return Result{}, err
	}
	logger.Info("video-only intermediate ready",
		logging.String(logging.FieldEventType, "anonymize_intermediate"),
		logging.String("intermediate_id", intermediate.ID),
	)

	probe, err := s.probe.Inspect(ctx, source.Path)
	if err != nil {
		return Result{}, s.remuxFailure(ctx, "probe original", err)
	}
	result := Result{Intermediate: intermediate, SourceHasAudio: probe.HasAudio()}

	final, remuxErr := s.remux(ctx, source, intermediate, ext, result.SourceHasAudio)
	if remuxErr == nil {
		result.Final = final
		logger.Info("anonymization completed",
			logging.String(logging.FieldEventType, "anonymize_complete"),
			logging.String("final_id", final.ID),
			logging.Bool("audio", result.SourceHasAudio),
			logging.Duration("elapsed", time.Since(start)),
		)
		return result, nil
	}
	if !s.opts.AllowVideoOnlyFallback || ctx.Err() != nil {
		return Result{}, remuxErr
	}

	fallback, err := s.fallback(ctx, source, intermediate, ext)
	if err != nil {
		return Result{}, errors.Join(remuxErr, err)
	}
	logging.WarnWithContext(logger, "remux failed; returning video without audio", "anonymize_degraded",
		logging.String("final_id", fallback.ID),
		logging.Error(remuxErr),
		logging.String(logging.FieldErrorHint, "check ffmpeg output for the remux failure"),
		logging.String(logging.FieldImpact, "anonymized video has no audio"),
	)
	result.Final = fallback
	result.Degraded = true
	return result, nil
}

func (s *Stage) blur(ctx context.Context, source artifact.Artifact, ext string) (artifact.Artifact, error) {
	pending, err := s.store.Reserve(artifact.KindVideoOnly, artifact.PrefixBlurredRaw, ext, source.ID)
	if err != nil {
		return artifact.Artifact{}, err
	}
	defer pending.Discard()

	out, err := s.runner.Run(ctx, procexec.Spec{
		Name: s.opts.Python,
		Args: []string{s.opts.Script, source.Path, pending.TempPath},
		Env:  []string{"PYTHONIOENCODING=utf-8"},
	})
	if stderr := strings.TrimSpace(string(out.Stderr)); stderr != "" {
		logging.WithContext(ctx, s.logger).Debug("blur script diagnostics", logging.String("stderr", stderr))
	}
	if err != nil {
		if ctx.Err() != nil {
			return artifact.Artifact{}, ctx.Err()
		}
		return artifact.Artifact{}, services.Wrap(services.ErrExternalTool, "anonymize", "blur faces", "anonymization processor failed", err)
	}
	intermediate, err := pending.Commit(ctx)
	if err != nil {
		return artifact.Artifact{}, services.Wrap(services.ErrExternalTool, "anonymize", "blur faces", "processor produced no output", err)
	}
	return intermediate, nil
}

func (s *Stage) remux(ctx context.Context, source, intermediate artifact.Artifact, ext string, withAudio bool) (artifact.Artifact, error) {
	pending, err := s.store.Reserve(artifact.KindFinalVideo, artifact.PrefixBlurred, ext, source.ID)
	if err != nil {
		return artifact.Artifact{}, err
	}
	defer pending.Discard()

	spec := ffmpeg.MuxSpec{Video: intermediate.Path, Output: pending.TempPath}
	if withAudio {
		spec.AudioSource = source.Path
	}
	if err := s.ffmpeg.Mux(ctx, spec); err != nil {
		return artifact.Artifact{}, s.remuxFailure(ctx, "mux audio", err)
	}
	if withAudio {
		probe, err := s.probe.Inspect(ctx, pending.TempPath)
		if err != nil {
			return artifact.Artifact{}, s.remuxFailure(ctx, "verify output", err)
		}
		if n := probe.AudioStreamCount(); n != 1 {
			return artifact.Artifact{}, s.remuxFailure(ctx, "verify output",
				fmt.Errorf("expected 1 audio stream, found %d", n))
		}
	}
	final, err := pending.Commit(ctx)
	if err != nil {
		return artifact.Artifact{}, s.remuxFailure(ctx, "commit output", err)
	}
	return final, nil
}

func (s *Stage) fallback(ctx context.Context, source, intermediate artifact.Artifact, ext string) (artifact.Artifact, error) {
	pending, err := s.store.Reserve(artifact.KindFinalVideo, artifact.PrefixBlurred, ext, source.ID)
	if err != nil {
		return artifact.Artifact{}, err
	}
	defer pending.Discard()
	if _, err := fileutil.CopyFileVerified(ctx, intermediate.Path, pending.TempPath); err != nil {
		return artifact.Artifact{}, fmt.Errorf("copy video-only fallback: %w", err)
	}
	pending.Degraded = true
	return pending.Commit(ctx)
}

func (s *Stage) remuxFailure(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return services.Wrap(services.ErrRemuxFailed, "anonymize", operation, "could not restore original audio", err)
}

func videoExt(a artifact.Artifact) string {
	ext := strings.TrimPrefix(filepath.Ext(a.FileName), ".")
	if ext == "" {
		return "mp4"
	}
	return ext
}

// HealthCheck verifies the blur script and its interpreter exist.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "python", Command: s.opts.Python},
		{Name: "script", Command: s.opts.Script, File: true},
		{Name: "ffmpeg", Command: s.ffmpeg.Binary()},
	})
	if missing := deps.Missing(statuses); len(missing) > 0 {
		return stage.Unhealthy("anonymize", missing[0].Detail)
	}
	return stage.Healthy("anonymize")
}
