package services_test

import (
	"context"
	"testing"

	"vidpipe/internal/services"
)

func TestContextAnnotations(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-123")
	ctx = services.WithStage(ctx, "transcribe")
	ctx = services.WithArtifactID(ctx, "abc")
	// A later stage replaces the earlier one; blank values are ignored.
	ctx = services.WithStage(ctx, "burn_in")
	ctx = services.WithArtifactID(ctx, "")

	checks := []struct {
		name string
		get  func(context.Context) (string, bool)
		want string
	}{
		{"request", services.RequestIDFromContext, "req-123"},
		{"stage", services.StageFromContext, "burn_in"},
		{"artifact", services.ArtifactIDFromContext, "abc"},
	}
	for _, c := range checks {
		if got, ok := c.get(ctx); !ok || got != c.want {
			t.Errorf("%s = (%q, %v), want %q", c.name, got, ok, c.want)
		}
	}
}

func TestContextAnnotationsAbsent(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
}
