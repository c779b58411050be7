package services

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	stageKey
	artifactIDKey
)

// withValue stores a non-empty string; empty values leave ctx untouched so an
// outer annotation stays visible.
func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func value(ctx context.Context, key contextKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithRequestID annotates context with a pipeline invocation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the invocation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, requestIDKey)
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return value(ctx, stageKey)
}

// WithArtifactID annotates context with the artifact a stage is consuming.
func WithArtifactID(ctx context.Context, id string) context.Context {
	return withValue(ctx, artifactIDKey, id)
}

// ArtifactIDFromContext returns the current artifact identifier if present.
func ArtifactIDFromContext(ctx context.Context) (string, bool) {
	return value(ctx, artifactIDKey)
}
