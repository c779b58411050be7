package burnin

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"vidpipe/internal/artifact"
	"vidpipe/internal/deps"
	"vidpipe/internal/ffmpeg"
	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/stage"
	"vidpipe/internal/subtitles"
)

// Result is the outcome of one burn-in.
type Result struct {
	Video     artifact.Artifact
	Subtitles artifact.Artifact
}

// Stage burns subtitle documents into videos.
type Stage struct {
	store  *artifact.Store
	ffmpeg *ffmpeg.Engine
	logger *slog.Logger
}

// New constructs the stage.
func New(store *artifact.Store, engine *ffmpeg.Engine, logger *slog.Logger) *Stage {
	return &Stage{
		store:  store,
		ffmpeg: engine,
		logger: logging.NewComponentLogger(logger, "burnin"),
	}
}

// Burn renders segments onto video and returns the new video artifact along
// with the SRT document it used.
func (s *Stage) Burn(ctx context.Context, video artifact.Artifact, segments []subtitles.Segment) (Result, error) {
	if !video.IsVideo() || strings.TrimSpace(video.Path) == "" {
		return Result{}, services.Wrap(services.ErrInputInvalid, "burn_in", "validate input", "source video required", nil)
	}
	doc, err := subtitles.Build(segments, subtitles.FormatSRT)
	if err != nil {
		return Result{}, err
	}
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	subs, err := s.store.Put(ctx, artifact.KindSubtitleDocument, artifact.PrefixSubtitles, doc.Format.Extension(), video.ID, doc.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("persist subtitle document: %w", err)
	}

	pending, err := s.store.Reserve(artifact.KindFinalVideo, artifact.PrefixSubbed, videoExt(video), video.ID)
	if err != nil {
		return Result{}, err
	}
	defer pending.Discard()

	dir := filepath.Dir(pending.Path)
	if filepath.Dir(subs.Path) != dir {
		return Result{}, fmt.Errorf("subtitle document %s is not beside %s", subs.Path, pending.Path)
	}
	input := video.Path
	if filepath.Dir(input) == dir {
		input = video.FileName
	}

	logger.Debug("burning subtitles",
		logging.String("subtitle_file", subs.FileName),
		logging.Int("cues", len(doc.Cues)),
	)
	err = s.ffmpeg.BurnSubtitles(ctx, ffmpeg.BurnSpec{
		Dir:      dir,
		Input:    input,
		Subtitle: subs.FileName,
		Output:   pending.TempName(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrBurnInFailed, "burn_in", "render subtitles", "ffmpeg failed", err)
	}

	out, err := pending.Commit(ctx)
	if err != nil {
		return Result{}, services.Wrap(services.ErrBurnInFailed, "burn_in", "commit output", "ffmpeg produced no usable output", err)
	}
	logger.Info("burn-in completed",
		logging.String(logging.FieldEventType, "burn_in_complete"),
		logging.String("output_id", out.ID),
		logging.String("subtitle_id", subs.ID),
		logging.Int("cues", len(doc.Cues)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return Result{Video: out, Subtitles: subs}, nil
}

func videoExt(a artifact.Artifact) string {
	ext := strings.TrimPrefix(filepath.Ext(a.FileName), ".")
	if ext == "" {
		return "mp4"
	}
	return ext
}

// HealthCheck verifies ffmpeg is on PATH.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	status := deps.CheckBinaries([]deps.Requirement{{Name: "ffmpeg", Command: s.ffmpeg.Binary()}})[0]
	if !status.Available {
		return stage.Unhealthy("burn_in", status.Detail)
	}
	return stage.Healthy("burn_in")
}
