package testsupport

import (
	"bytes"
	"context"
	"testing"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
)

// MustOpenStore opens an artifact.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *artifact.Store {
	t.Helper()

	store, err := artifact.Open(cfg)
	if err != nil {
		t.Fatalf("artifact.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StageVideo stages placeholder bytes as an original artifact.
func StageVideo(t testing.TB, store *artifact.Store, content string) artifact.Artifact {
	t.Helper()

	a, err := store.Stage(context.Background(), bytes.NewReader([]byte(content)), "mp4")
	if err != nil {
		t.Fatalf("store.Stage: %v", err)
	}
	return a
}
