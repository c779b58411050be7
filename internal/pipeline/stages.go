package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidpipe/internal/artifact"
	"vidpipe/internal/logging"
	"vidpipe/internal/metrics"
	"vidpipe/internal/services"
	"vidpipe/internal/subtitles"
)

// runStage executes one stage under its own deadline and updates st on
// success only.
func (o *Orchestrator) runStage(ctx context.Context, index int, spec StageSpec, st *state) (StageOutput, error) {
	kind, _ := ParseStageKind(string(spec.Kind))
	spec.Kind = kind
	name := string(kind)

	stageCtx := services.WithStage(ctx, name)
	stageCtx = services.WithArtifactID(stageCtx, st.current.ID)
	var cancel context.CancelFunc = func() {}
	if o.opts.StageTimeout > 0 {
		stageCtx, cancel = context.WithTimeout(stageCtx, o.opts.StageTimeout)
	}
	defer cancel()

	logger := logging.WithContext(stageCtx, o.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("index", index+1),
		logging.String("language", spec.Language),
	)
	start := time.Now()

	out, err := o.dispatch(stageCtx, spec, st)
	elapsed := time.Since(start)
	if err != nil {
		err = o.classify(ctx, stageCtx, name, err)
		kindName := services.Kind(err)
		metrics.ObserveStage(name, metrics.OutcomeFailure, elapsed)
		metrics.RecordStageFailure(name, kindName)
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("error_kind", kindName),
			logging.String(logging.FieldErrorHint, hintFor(kindName)),
			logging.Duration("stage_duration", elapsed),
			logging.Error(err),
		)
		return StageOutput{}, err
	}

	out.Index = index
	out.Kind = kind
	out.Language = spec.Language
	out.Duration = elapsed
	outcome := metrics.OutcomeSuccess
	if out.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	metrics.ObserveStage(name, outcome, elapsed)
	for _, a := range []*artifact.Artifact{out.Intermediate, out.Subtitles, out.Artifact} {
		if a != nil {
			metrics.ArtifactsCreatedTotal.WithLabelValues(string(a.Kind)).Inc()
		}
	}
	if out.Artifact != nil {
		produced := *out.Artifact
		st.current = produced
		st.lastGood = &produced
	} else if out.Subtitles != nil && st.lastGood == nil {
		// A sidecar document is the only usable output so far.
		produced := *out.Subtitles
		st.lastGood = &produced
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("current_artifact", st.current.ID),
		logging.Bool("degraded", out.Degraded),
		logging.Duration("stage_duration", elapsed),
	)
	return out, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, spec StageSpec, st *state) (StageOutput, error) {
	switch spec.Kind {
	case StageTranscribe:
		if o.stages.Transcriber == nil {
			return StageOutput{}, unavailable(spec.Kind)
		}
		res, err := o.stages.Transcriber.Transcribe(ctx, st.current.Path, spec.Language)
		if err != nil {
			return StageOutput{}, err
		}
		st.segments = res.Segments
		st.transcript = res.Text
		return StageOutput{Segments: res.Segments, Transcript: res.Text}, nil

	case StageTranslate:
		if err := requireSegments(spec, st); err != nil {
			return StageOutput{}, err
		}
		if o.stages.Translator == nil {
			return StageOutput{}, unavailable(spec.Kind)
		}
		res, err := o.stages.Translator.Translate(ctx, st.segments, spec.Language)
		if err != nil {
			return StageOutput{}, err
		}
		st.segments = res.Segments
		st.transcript = subtitles.JoinText(res.Segments)
		return StageOutput{
			Segments:       res.Segments,
			Transcript:     st.transcript,
			Degraded:       res.Degraded,
			DegradedReason: res.Reason,
		}, nil

	case StageAnonymize:
		if o.stages.Anonymizer == nil {
			return StageOutput{}, unavailable(spec.Kind)
		}
		res, err := o.stages.Anonymizer.Anonymize(ctx, st.current)
		if err != nil {
			return StageOutput{}, err
		}
		out := StageOutput{Artifact: &res.Final, Intermediate: &res.Intermediate, Degraded: res.Degraded}
		if res.Degraded {
			out.DegradedReason = services.KindRemuxFailed
		}
		return out, nil

	case StageBurnIn:
		if err := requireSegments(spec, st); err != nil {
			return StageOutput{}, err
		}
		if o.stages.Burner == nil {
			return StageOutput{}, unavailable(spec.Kind)
		}
		res, err := o.stages.Burner.Burn(ctx, st.current, st.segments)
		if err != nil {
			return StageOutput{}, err
		}
		return StageOutput{Artifact: &res.Video, Subtitles: &res.Subtitles}, nil

	case StageExportSubtitles:
		if err := requireSegments(spec, st); err != nil {
			return StageOutput{}, err
		}
		if o.stages.Burner == nil {
			return StageOutput{}, unavailable(spec.Kind)
		}
		doc, err := o.stages.Burner.Export(ctx, st.current, st.segments, spec.Format)
		if err != nil {
			return StageOutput{}, err
		}
		return StageOutput{Subtitles: &doc}, nil
	}
	return StageOutput{}, services.Wrap(services.ErrInputInvalid, "pipeline", "dispatch", fmt.Sprintf("unknown stage %q", spec.Kind), nil)
}

// classify turns an expired stage deadline into ErrStageTimeout. Caller
// cancellation passes through unchanged.
func (o *Orchestrator) classify(parent, stageCtx context.Context, stage string, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrStageTimeout, stage, "run",
			fmt.Sprintf("exceeded %s", o.opts.StageTimeout), err)
	}
	return err
}

// requireSegments makes sure st carries segments for spec, seeding them from
// the segments supplied with a burn_in or export_subtitles request when no
// earlier stage produced any.
func requireSegments(spec StageSpec, st *state) error {
	if len(st.segments) > 0 {
		return nil
	}
	if acceptsSegments(spec.Kind) && len(spec.Segments) > 0 {
		st.segments = subtitles.Clone(spec.Segments)
		st.transcript = subtitles.JoinText(st.segments)
		return nil
	}
	return services.Wrap(services.ErrInputInvalid, string(spec.Kind), "validate input",
		"no segments available; run transcribe earlier in the chain or supply segments", nil)
}

func acceptsSegments(kind StageKind) bool {
	return kind == StageBurnIn || kind == StageExportSubtitles
}

func unavailable(kind StageKind) error {
	return services.Wrap(services.ErrConfiguration, string(kind), "dispatch", "stage not configured", nil)
}

func hintFor(kind string) string {
	switch kind {
	case services.KindTranscriptionParse, services.KindNoSegments:
		return "check the speech-to-text processor output and audio content"
	case services.KindEmptyDocument:
		return "transcript has no text to render"
	case services.KindRemuxFailed:
		return "inspect ffmpeg diagnostics or enable anonymization.allow_video_only_fallback"
	case services.KindBurnInFailed:
		return "inspect ffmpeg diagnostics for the subtitles filter"
	case services.KindStageTimeout:
		return "raise pipeline.stage_timeout_seconds or use a shorter clip"
	case services.KindInputInvalid:
		return "check the source artifact id and stage order"
	default:
		return "check logs for details"
	}
}
