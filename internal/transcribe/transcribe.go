package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	langpkg "vidpipe/internal/language"
	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/services/whisper"
	"vidpipe/internal/stage"
	"vidpipe/internal/subtitles"
)

// Result is the outcome of one transcription.
type Result struct {
	Segments []subtitles.Segment
	// Text is the non-empty segment texts joined by single spaces.
	Text string
	// Dropped counts segments discarded for invalid timing.
	Dropped int
}

// Stage runs the speech-to-text processor.
type Stage struct {
	processor whisper.Processor
	logger    *slog.Logger
}

// New constructs a transcription stage around processor.
func New(processor whisper.Processor, logger *slog.Logger) *Stage {
	return &Stage{
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Transcribe produces segments for the video at videoPath. A language other
// than "auto" is forwarded to the processor as a hint.
func (s *Stage) Transcribe(ctx context.Context, videoPath, language string) (Result, error) {
	if strings.TrimSpace(videoPath) == "" {
		return Result{}, services.Wrap(services.ErrInputInvalid, "transcribe", "validate input", "video path required", nil)
	}
	hint, ok := langpkg.Canonical(language)
	if !ok {
		return Result{}, services.Wrap(services.ErrInputInvalid, "transcribe", "validate input",
			fmt.Sprintf("unrecognized language %q", language), nil)
	}
	if s.processor == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "transcribe", "init", "speech-to-text processor unavailable", nil)
	}

	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()
	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcription_start"),
		logging.String("language_hint", displayHint(hint)),
	)

	payload, err := s.processor.Transcribe(ctx, videoPath, hint)
	if err != nil {
		return Result{}, err
	}
	segments, dropped, err := parseSegments(payload)
	if err != nil {
		return Result{}, err
	}
	if dropped > 0 {
		logging.WarnWithContext(logger, "discarded segments with invalid timing", "transcription_segments_dropped",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldErrorHint, "inspect the speech-to-text output for zero or negative durations"),
			logging.String(logging.FieldImpact, "some speech will not be subtitled"),
		)
	}
	if len(segments) == 0 {
		return Result{}, services.Wrap(services.ErrNoSegments, "transcribe", "parse", "processor returned no usable segments", nil)
	}

	result := Result{
		Segments: segments,
		Text:     subtitles.JoinText(segments),
		Dropped:  dropped,
	}
	logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func displayHint(hint string) string {
	if hint == "" {
		return langpkg.Auto
	}
	return hint
}

// HealthCheck reports whether a processor is wired.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s.processor == nil {
		return stage.Unhealthy("transcribe", "speech-to-text processor unavailable")
	}
	return stage.Healthy("transcribe")
}
