package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Stage-level failure markers. Wrap tags errors with one of these so callers
// can classify failures with errors.Is regardless of how deep the cause sits.
var (
	ErrInputInvalid        = errors.New("input invalid")
	ErrTranscriptionParse  = errors.New("transcription parse error")
	ErrNoSegments          = errors.New("no segments produced")
	ErrEmptyDocument       = errors.New("empty subtitle document")
	ErrRemuxFailed         = errors.New("remux failed")
	ErrBurnInFailed        = errors.New("burn-in failed")
	ErrStageTimeout        = errors.New("stage timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrExternalTool        = errors.New("external tool error")
	ErrConfiguration       = errors.New("configuration error")
	ErrNotFound            = errors.New("not found")
)

// Kind names used in logs, metrics labels, and CLI output.
const (
	KindInputInvalid        = "input_invalid"
	KindTranscriptionParse  = "transcription_parse_error"
	KindNoSegments          = "no_segments_produced"
	KindEmptyDocument       = "empty_document"
	KindRemuxFailed         = "remux_failed"
	KindBurnInFailed        = "burn_in_failed"
	KindStageTimeout        = "stage_timeout"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindExternalTool        = "external_tool"
	KindConfiguration       = "configuration"
	KindNotFound            = "not_found"
	KindCanceled            = "canceled"
	KindUnknown             = "unknown"
)

var kindTable = []struct {
	marker error
	kind   string
}{
	{ErrInputInvalid, KindInputInvalid},
	{ErrTranscriptionParse, KindTranscriptionParse},
	{ErrNoSegments, KindNoSegments},
	{ErrEmptyDocument, KindEmptyDocument},
	{ErrRemuxFailed, KindRemuxFailed},
	{ErrBurnInFailed, KindBurnInFailed},
	{ErrStageTimeout, KindStageTimeout},
	{ErrUpstreamUnavailable, KindUpstreamUnavailable},
	{ErrConfiguration, KindConfiguration},
	{ErrNotFound, KindNotFound},
	{ErrExternalTool, KindExternalTool},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its taxonomy name. Markers win over context errors so a
// stage that already classified a deadline keeps its classification.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.marker) {
			return entry.kind
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindStageTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	return KindUnknown
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
