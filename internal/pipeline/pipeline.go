package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidpipe/internal/anonymize"
	"vidpipe/internal/artifact"
	"vidpipe/internal/burnin"
	"vidpipe/internal/logging"
	"vidpipe/internal/metrics"
	"vidpipe/internal/services"
	"vidpipe/internal/stage"
	"vidpipe/internal/subtitles"
	"vidpipe/internal/transcribe"
	"vidpipe/internal/translate"
)

// Transcriber produces segments for a video file.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath, language string) (transcribe.Result, error)
}

// Translator rewrites segment text.
type Translator interface {
	Translate(ctx context.Context, segments []subtitles.Segment, target string) (translate.Result, error)
}

// Anonymizer blurs faces in a video.
type Anonymizer interface {
	Anonymize(ctx context.Context, source artifact.Artifact) (anonymize.Result, error)
}

// Burner renders and exports subtitle documents.
type Burner interface {
	Burn(ctx context.Context, video artifact.Artifact, segments []subtitles.Segment) (burnin.Result, error)
	Export(ctx context.Context, parent artifact.Artifact, segments []subtitles.Segment, format subtitles.Format) (artifact.Artifact, error)
}

// Stages bundles the stage implementations. A nil stage fails any request
// that needs it with a configuration error.
type Stages struct {
	Transcriber Transcriber
	Translator  Translator
	Anonymizer  Anonymizer
	Burner      Burner
}

// Options tune the orchestrator.
type Options struct {
	// StageTimeout bounds each stage. Zero disables the deadline.
	StageTimeout time.Duration
}

// Orchestrator runs requests against an artifact store.
type Orchestrator struct {
	store  *artifact.Store
	stages Stages
	opts   Options
	logger *slog.Logger
}

// New constructs an orchestrator.
func New(store *artifact.Store, stages Stages, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		stages: stages,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// state is the mutable handoff between stages within one run.
type state struct {
	current    artifact.Artifact
	lastGood   *artifact.Artifact
	segments   []subtitles.Segment
	transcript string
}

// Run executes req. On stage failure the returned Result holds the completed
// stages and the error is a *StageError.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, o.logger)
	result := Result{RequestID: requestID}

	if err := validate(req); err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return result, err
	}

	lease, err := o.store.Acquire(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return result, err
	}
	defer func() {
		if err := lease.Release(); err != nil {
			logger.Warn("failed to release store lease", logging.Error(err))
		}
	}()

	source, err := o.resolveSource(ctx, req.SourceArtifactID)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return result, err
	}
	result.Source = source
	st := &state{current: source}

	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String(logging.FieldArtifactID, source.ID),
		logging.String("stages", describe(req.Stages)),
	)
	runStart := time.Now()
	degraded := false

	for i, spec := range req.Stages {
		out, err := o.runStage(ctx, i, spec, st)
		if err != nil {
			stageErr := &StageError{Index: i, Kind: spec.Kind, Err: err, LastGood: st.lastGood}
			o.finish(&result, st)
			metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
			attrs := []logging.Attr{
				logging.String("failed_stage", string(spec.Kind)),
				logging.String("error_kind", stageErr.ErrorKind()),
				logging.Error(err),
			}
			if st.lastGood != nil {
				attrs = append(attrs, logging.String("last_good_artifact", st.lastGood.ID))
			}
			logging.ErrorWithContext(logger, "pipeline stopped", "pipeline_failure", attrs...)
			return result, stageErr
		}
		degraded = degraded || out.Degraded
		result.Stages = append(result.Stages, out)
	}

	o.finish(&result, st)
	outcome := metrics.OutcomeSuccess
	if degraded {
		outcome = metrics.OutcomeDegraded
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("final_artifact", result.Final.ID),
		logging.String("final_url", result.FinalURL),
		logging.Bool("degraded", degraded),
		logging.Duration("elapsed", time.Since(runStart)),
	)
	return result, nil
}

// HealthCheck reports readiness of every wired stage.
func (o *Orchestrator) HealthCheck(ctx context.Context) []stage.Health {
	var checkers []stage.Checker
	for _, s := range []any{o.stages.Anonymizer, o.stages.Transcriber, o.stages.Translator, o.stages.Burner} {
		if c, ok := s.(stage.Checker); ok {
			checkers = append(checkers, c)
		}
	}
	return stage.CheckAll(ctx, checkers...)
}

func (o *Orchestrator) finish(result *Result, st *state) {
	result.Final = st.current
	result.FinalURL = st.current.URL
	result.Segments = st.segments
	result.Transcript = st.transcript
}

func (o *Orchestrator) resolveSource(ctx context.Context, id string) (artifact.Artifact, error) {
	source, err := o.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrInputInvalid) {
			return artifact.Artifact{}, err
		}
		return artifact.Artifact{}, services.Wrap(services.ErrInputInvalid, "pipeline", "resolve source",
			fmt.Sprintf("source artifact %q unavailable", id), err)
	}
	if !source.IsVideo() {
		return artifact.Artifact{}, services.Wrap(services.ErrInputInvalid, "pipeline", "resolve source",
			fmt.Sprintf("artifact %s is a %s, not a video", source.ID, source.Kind), nil)
	}
	return source, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.SourceArtifactID) == "" {
		return services.Wrap(services.ErrInputInvalid, "pipeline", "validate request", "source artifact id required", nil)
	}
	for i, spec := range req.Stages {
		if _, err := ParseStageKind(string(spec.Kind)); err != nil {
			return fmt.Errorf("stage %d: %w", i+1, err)
		}
		if len(spec.Segments) == 0 {
			continue
		}
		if !acceptsSegments(spec.Kind) {
			return services.Wrap(services.ErrInputInvalid, "pipeline", "validate request",
				fmt.Sprintf("stage %d (%s) does not take segments", i+1, spec.Kind), nil)
		}
		for j, seg := range spec.Segments {
			if !seg.Valid() {
				return services.Wrap(services.ErrInputInvalid, "pipeline", "validate request",
					fmt.Sprintf("stage %d (%s): segment %d has invalid timing %.3f-%.3f", i+1, spec.Kind, j+1, seg.Start, seg.End), nil)
			}
		}
	}
	return nil
}

func describe(specs []StageSpec) string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		name := string(s.Kind)
		if s.Language != "" {
			name += "(" + s.Language + ")"
		}
		names = append(names, name)
	}
	return strings.Join(names, ",")
}
