package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"vidpipe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrBurnInFailed, "burn_in", "ffmpeg", "filter failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrBurnInFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"burn_in", "ffmpeg", "filter failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToExternalTool(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"input", services.Wrap(services.ErrInputInvalid, "pipeline", "resolve", "missing", nil), services.KindInputInvalid},
		{"parse", services.Wrap(services.ErrTranscriptionParse, "transcribe", "decode", "", errors.New("bad json")), services.KindTranscriptionParse},
		{"empty", fmt.Errorf("outer: %w", services.ErrEmptyDocument), services.KindEmptyDocument},
		{"remux", services.Wrap(services.ErrRemuxFailed, "anonymize", "mux", "", nil), services.KindRemuxFailed},
		{"timeout marker wins", services.Wrap(services.ErrStageTimeout, "burn_in", "", "", context.DeadlineExceeded), services.KindStageTimeout},
		{"bare deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), services.KindStageTimeout},
		{"canceled", context.Canceled, services.KindCanceled},
		{"unknown", errors.New("mystery"), services.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
