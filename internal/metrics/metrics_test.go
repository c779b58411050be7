package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStageFailure(t *testing.T) {
	before := testutil.ToFloat64(StageFailuresTotal.WithLabelValues("burn_in", "burn_in_failed"))
	RecordStageFailure("burn_in", "burn_in_failed")
	after := testutil.ToFloat64(StageFailuresTotal.WithLabelValues("burn_in", "burn_in_failed"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestWriteTextfile(t *testing.T) {
	ObserveStage("transcribe", OutcomeSuccess, 1500*time.Millisecond)
	RunsTotal.WithLabelValues(OutcomeSuccess).Inc()

	path := filepath.Join(t.TempDir(), "textfile", "vidpipe.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	for _, name := range []string{"vidpipe_stage_duration_seconds", "vidpipe_runs_total"} {
		if !strings.Contains(string(data), name) {
			t.Fatalf("expected %s in textfile:\n%s", name, data)
		}
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
}
