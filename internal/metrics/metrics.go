package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDegraded = "degraded"
)

// Stage metrics
var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidpipe_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage", "outcome"},
	)

	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpipe_stage_failures_total",
			Help: "Total number of failed pipeline stages by error kind",
		},
		[]string{"stage", "kind"},
	)
)

// Pipeline metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpipe_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"outcome"},
	)

	ArtifactsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpipe_artifacts_created_total",
			Help: "Total number of artifacts committed to the store",
		},
		[]string{"kind"},
	)
)

// Translation metrics
var (
	TranslationSegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidpipe_translation_segments_total",
			Help: "Translated segments by result",
		},
		[]string{"result"}, // "translated", "fallback"
	)

	TranslationDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidpipe_translation_degraded_total",
			Help: "Translation stages that passed text through because no credentials were configured",
		},
	)
)

// ObserveStage records one finished stage.
func ObserveStage(stage, outcome string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}

// RecordStageFailure counts a failed stage under its error kind.
func RecordStageFailure(stage, kind string) {
	StageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

// WriteTextfile writes the default registry to path in the text exposition
// format, creating the parent directory if needed.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
