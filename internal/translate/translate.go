package translate

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	langpkg "vidpipe/internal/language"
	"vidpipe/internal/logging"
	"vidpipe/internal/metrics"
	"vidpipe/internal/services"
	"vidpipe/internal/stage"
	"vidpipe/internal/subtitles"
)

const systemPromptFormat = `Translate the user's subtitle text into language code "%s". Return ONLY the translated text, with no quotes, metadata, or explanation.`

const defaultConcurrency = 4

// Completer is the subset of the LLM client the stage needs.
type Completer interface {
	Configured() bool
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options tune the stage.
type Options struct {
	// SourceLanguage is the language that needs no translation.
	SourceLanguage string
	// Concurrency bounds in-flight requests.
	Concurrency int
}

// Result is the outcome of one translation pass.
type Result struct {
	Segments []subtitles.Segment
	Target   string
	// Degraded is set when text was passed through because the translator
	// was unavailable. Reason carries the error kind.
	Degraded   bool
	Reason     string
	Translated int
	Fallbacks  int
}

// Stage translates segments through a Completer.
type Stage struct {
	client      Completer
	source      string
	concurrency int
	logger      *slog.Logger
}

// New constructs a translation stage. client may be nil, which behaves like a
// client without credentials.
func New(client Completer, opts Options, logger *slog.Logger) *Stage {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	source := opts.SourceLanguage
	if source == "" {
		source = "en"
	}
	return &Stage{
		client:      client,
		source:      source,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "translate"),
	}
}

// Translate returns segments with text translated into target. Auto, empty,
// or a target matching the source language returns the input slice itself.
func (s *Stage) Translate(ctx context.Context, segments []subtitles.Segment, target string) (Result, error) {
	canonical, ok := langpkg.Canonical(target)
	if !ok {
		return Result{}, services.Wrap(services.ErrInputInvalid, "translate", "validate input",
			fmt.Sprintf("unrecognized target language %q", target), nil)
	}
	if canonical == "" || langpkg.SameBase(canonical, s.source) {
		return Result{Segments: segments, Target: canonical}, nil
	}

	logger := logging.WithContext(ctx, s.logger)
	if s.client == nil || !s.client.Configured() {
		metrics.TranslationDegradedTotal.Inc()
		logging.WarnWithContext(logger, "translation skipped; credentials unavailable", "translation_degraded",
			logging.String("target_language", canonical),
			logging.String(logging.FieldErrorHint, "set translation.api_key or OPENAI_API_KEY"),
			logging.String(logging.FieldImpact, "subtitles keep the transcribed language"),
		)
		return Result{
			Segments: segments,
			Target:   canonical,
			Degraded: true,
			Reason:   services.KindUpstreamUnavailable,
		}, nil
	}

	out := subtitles.Clone(segments)
	prompt := fmt.Sprintf(systemPromptFormat, canonical)
	var translated, fallbacks atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range out {
		if subtitles.CleanText(out[i].Text) == "" {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			text, err := s.client.CompleteText(ctx, prompt, out[i].Text)
			if err == nil && text != "" {
				out[i].Text = text
				translated.Add(1)
				metrics.TranslationSegmentsTotal.WithLabelValues("translated").Inc()
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			fallbacks.Add(1)
			metrics.TranslationSegmentsTotal.WithLabelValues("fallback").Inc()
			reason := "empty response"
			if err != nil {
				reason = err.Error()
			}
			logging.WarnWithContext(logger, "segment translation failed; keeping original text", "translation_segment_fallback",
				logging.Int("segment", i+1),
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "check translation service status and rate limits"),
				logging.String(logging.FieldImpact, "one subtitle line stays untranslated"),
			)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	logger.Info("translation completed",
		logging.String(logging.FieldEventType, "translation_complete"),
		logging.String("target_language", canonical),
		logging.Int64("translated", translated.Load()),
		logging.Int64("fallbacks", fallbacks.Load()),
	)
	return Result{
		Segments:   out,
		Target:     canonical,
		Translated: int(translated.Load()),
		Fallbacks:  int(fallbacks.Load()),
	}, nil
}

// HealthCheck reports degraded readiness when no credentials are configured.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s.client == nil || !s.client.Configured() {
		return stage.Degraded("translate", "no credentials; text passes through untranslated")
	}
	return stage.Healthy("translate")
}
