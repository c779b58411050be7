package anonymize

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"vidpipe/internal/artifact"
	"vidpipe/internal/ffmpeg"
	"vidpipe/internal/media/ffprobe"
	"vidpipe/internal/services"
	"vidpipe/internal/testsupport"
)

func newStage(t *testing.T, media *testsupport.FakeMedia, fallback bool) (*Stage, *artifact.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	opts := OptionsFromConfig(cfg)
	opts.AllowVideoOnlyFallback = fallback
	stage := New(store, media, ffmpeg.New("ffmpeg", media), ffprobe.NewProber("ffprobe", media), opts, nil)
	return stage, store
}

func TestAnonymizeRestoresOriginalAudio(t *testing.T) {
	media := &testsupport.FakeMedia{}
	stage, store := newStage(t, media, false)
	source := testsupport.StageVideo(t, store, "clip")

	result, err := stage.Anonymize(context.Background(), source)
	if err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if result.Degraded || !result.SourceHasAudio {
		t.Fatalf("unexpected flags %+v", result)
	}
	if result.Final.Kind != artifact.KindFinalVideo || !strings.HasPrefix(result.Final.FileName, "blurred-") {
		t.Fatalf("unexpected final artifact %+v", result.Final)
	}
	if result.Intermediate.Kind != artifact.KindVideoOnly || !strings.HasPrefix(result.Intermediate.FileName, "blurred-raw-") {
		t.Fatalf("unexpected intermediate %+v", result.Intermediate)
	}
	if result.Final.ParentID != source.ID || result.Final.ID == source.ID {
		t.Fatalf("final should be a new child of the source: %+v", result.Final)
	}

	var mux []string
	for _, call := range media.Calls() {
		if call.Name == "ffmpeg" {
			mux = call.Args
		}
	}
	// Audio must come from the original, never the intermediate.
	if got := strings.Join(mux, " "); !strings.Contains(got, "-i "+result.Intermediate.Path+" -i "+source.Path) ||
		!strings.Contains(got, "-map 1:a:0") || !strings.Contains(got, "-c:v copy") {
		t.Fatalf("unexpected mux args %v", mux)
	}

	data, err := os.ReadFile(result.Final.Path)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "muxed blurred(clip)" {
		t.Fatalf("unexpected final content %q", data)
	}
	original, _ := os.ReadFile(source.Path)
	if string(original) != "clip" {
		t.Fatal("source artifact must stay untouched")
	}
}

func TestAnonymizeSilentSourceIsNotDegraded(t *testing.T) {
	media := &testsupport.FakeMedia{}
	stage, store := newStage(t, media, false)
	source := testsupport.StageVideo(t, store, testsupport.VideoOnlyMarker+" silent clip")

	result, err := stage.Anonymize(context.Background(), source)
	if err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if result.Degraded || result.SourceHasAudio {
		t.Fatalf("unexpected flags %+v", result)
	}
}

func TestAnonymizeRemuxFailureIsSurfaced(t *testing.T) {
	for name, media := range map[string]*testsupport.FakeMedia{
		"mux exits":     {FailMux: true},
		"audio missing": {DropAudio: true},
	} {
		t.Run(name, func(t *testing.T) {
			stage, store := newStage(t, media, false)
			source := testsupport.StageVideo(t, store, "clip")

			_, err := stage.Anonymize(context.Background(), source)
			if !errors.Is(err, services.ErrRemuxFailed) {
				t.Fatalf("expected remux failure, got %v", err)
			}
			finals, err := store.List(context.Background(), artifact.ListOptions{Kind: artifact.KindFinalVideo})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(finals) != 0 {
				t.Fatalf("no final artifact should be registered, got %+v", finals)
			}
			assertNoPartials(t, store.Root())
		})
	}
}

func TestAnonymizeFallbackIsDegraded(t *testing.T) {
	media := &testsupport.FakeMedia{FailMux: true}
	stage, store := newStage(t, media, true)
	source := testsupport.StageVideo(t, store, "clip")

	result, err := stage.Anonymize(context.Background(), source)
	if err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	if !result.Degraded || !result.Final.Degraded {
		t.Fatalf("fallback must be marked degraded: %+v", result)
	}
	stored, err := store.Get(context.Background(), result.Final.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.Degraded {
		t.Fatal("registry should record the degraded flag")
	}
}

func TestAnonymizeBlurFailure(t *testing.T) {
	stage, store := newStage(t, &testsupport.FakeMedia{FailBlur: true}, true)
	source := testsupport.StageVideo(t, store, "clip")
	_, err := stage.Anonymize(context.Background(), source)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestAnonymizeRejectsSubtitleInput(t *testing.T) {
	stage, _ := newStage(t, &testsupport.FakeMedia{}, false)
	_, err := stage.Anonymize(context.Background(), artifact.Artifact{Kind: artifact.KindSubtitleDocument, Path: "/x.srt"})
	if !errors.Is(err, services.ErrInputInvalid) {
		t.Fatalf("expected input invalid, got %v", err)
	}
}

func assertNoPartials(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), artifact.PartialPrefix) {
			t.Fatalf("leftover partial file %s", entry.Name())
		}
	}
}
