package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vidpipe/internal/artifact"
	"vidpipe/internal/services"
	"vidpipe/internal/subtitles"
)

// StageKind names a pipeline stage.
type StageKind string

const (
	StageAnonymize       StageKind = "anonymize"
	StageTranscribe      StageKind = "transcribe"
	StageTranslate       StageKind = "translate"
	StageBurnIn          StageKind = "burn_in"
	StageExportSubtitles StageKind = "export_subtitles"
)

// ParseStageKind accepts the canonical names plus dashed spellings.
func ParseStageKind(value string) (StageKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	switch StageKind(normalized) {
	case StageAnonymize, "blur":
		return StageAnonymize, nil
	case StageTranscribe:
		return StageTranscribe, nil
	case StageTranslate:
		return StageTranslate, nil
	case StageBurnIn, "burn", "burnin":
		return StageBurnIn, nil
	case StageExportSubtitles, "export":
		return StageExportSubtitles, nil
	}
	return "", services.Wrap(services.ErrInputInvalid, "pipeline", "parse stage", fmt.Sprintf("unknown stage %q", value), nil)
}

// StageSpec is one requested stage with its parameters.
type StageSpec struct {
	Kind StageKind `json:"kind"`
	// Language is the target language for transcribe (as a hint) and
	// translate. Empty or "auto" means keep the spoken language.
	Language string `json:"language,omitempty"`
	// Format selects srt or vtt for export_subtitles.
	Format subtitles.Format `json:"format,omitempty"`
	// Segments feed burn_in and export_subtitles when no earlier stage in
	// the run has produced any.
	Segments []subtitles.Segment `json:"segments,omitempty"`
}

// Request asks for stages to run against a staged source artifact.
type Request struct {
	SourceArtifactID string      `json:"source_artifact_id"`
	Stages           []StageSpec `json:"stages"`
}

// StageOutput records what one completed stage produced.
type StageOutput struct {
	Index int       `json:"index"`
	Kind  StageKind `json:"kind"`
	// Language is the language hint or translation target the stage ran with.
	Language string `json:"language,omitempty"`
	// Artifact is the video produced by the stage, if any.
	Artifact     *artifact.Artifact  `json:"artifact,omitempty"`
	Intermediate *artifact.Artifact  `json:"intermediate,omitempty"`
	Subtitles    *artifact.Artifact  `json:"subtitles,omitempty"`
	Segments     []subtitles.Segment `json:"segments,omitempty"`
	Transcript   string              `json:"transcript,omitempty"`
	Degraded     bool                `json:"degraded,omitempty"`
	// DegradedReason is an error kind such as "upstream_unavailable".
	DegradedReason string        `json:"degraded_reason,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
}

// Result is the outcome of a run. On failure it still carries the outputs of
// the stages that completed.
type Result struct {
	RequestID string            `json:"request_id"`
	Source    artifact.Artifact `json:"source"`
	// Final is the current video when the run stopped. It equals Source when
	// no stage produced a video.
	Final    artifact.Artifact `json:"final"`
	FinalURL string            `json:"final_url"`
	Stages   []StageOutput     `json:"stages"`
	// Segments and Transcript reflect the latest transcription or translation.
	Segments   []subtitles.Segment `json:"segments,omitempty"`
	Transcript string              `json:"transcript,omitempty"`
}

// StageError reports the stage that stopped a run.
type StageError struct {
	Index int
	Kind  StageKind
	Err   error
	// LastGood is the newest artifact produced by a completed stage, or nil
	// when nothing usable was produced.
	LastGood *artifact.Artifact
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("stage %d (%s) failed [%s]: %v", e.Index+1, e.Kind, e.ErrorKind(), e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind returns the taxonomy name of the underlying error.
func (e *StageError) ErrorKind() string {
	if e == nil {
		return ""
	}
	return services.Kind(e.Err)
}

// AsStageError extracts a *StageError from err.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
