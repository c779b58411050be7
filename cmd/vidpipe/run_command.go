package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
	"vidpipe/internal/language"
	"vidpipe/internal/metrics"
	"vidpipe/internal/pipeline"
	"vidpipe/internal/preflight"
	"vidpipe/internal/subtitles"
)

type runOptions struct {
	stages          string
	language        string
	format          string
	input           string
	segments        string
	jsonOut         bool
	metricsTextfile string
}

// runFailure is the JSON shape of a failed run.
type runFailure struct {
	Result   pipeline.Result    `json:"result"`
	Error    string             `json:"error"`
	Kind     string             `json:"error_kind"`
	Stage    string             `json:"failed_stage,omitempty"`
	LastGood *artifact.Artifact `json:"last_good,omitempty"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [artifact-id]",
		Short: "Run a chain of stages against a staged video",
		Long: `Run a chain of stages against a staged video.

Stages are comma separated. A stage may carry a parameter after a colon:
  transcribe:<language hint>   translate:<target language>   export:<srt|vtt>

burn_in and export read segments from an earlier transcribe or translate stage.
Without one, pass --segments with a JSON file holding {"segments":[...]} or a
bare array of {"start","end","text"} objects.

Example:
  vidpipe run --input clip.mp4 --stages anonymize,transcribe,translate:fr,burn_in
  vidpipe run <artifact-id> --stages anonymize,burn_in --segments subs.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseStageList(opts.stages, opts.language, opts.format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(opts.segments) != "" {
				segments, err := loadSegments(opts.segments)
				if err != nil {
					return err
				}
				if specs, err = attachSegments(specs, segments); err != nil {
					return err
				}
			}
			var sourceID string
			if len(args) == 1 {
				sourceID = strings.TrimSpace(args[0])
			}
			if sourceID == "" && strings.TrimSpace(opts.input) == "" {
				return errors.New("provide an artifact id or --input <file>")
			}
			if sourceID != "" && strings.TrimSpace(opts.input) != "" {
				return errors.New("artifact id and --input are mutually exclusive")
			}

			return ctx.withStore(func(cfg *config.Config, store *artifact.Store) error {
				if check := preflight.CheckDirectoryAccess("Artifact directory", cfg.Paths.ArtifactDir); !check.Passed {
					return fmt.Errorf("preflight failed: %s", check.Detail)
				}
				if sourceID == "" {
					path, err := config.ExpandPath(strings.TrimSpace(opts.input))
					if err != nil {
						return fmt.Errorf("resolve input: %w", err)
					}
					staged, err := store.StageFile(cmd.Context(), path)
					if err != nil {
						return err
					}
					sourceID = staged.ID
				}

				orch, err := ctx.newOrchestrator(cfg, store)
				if err != nil {
					return err
				}
				result, runErr := orch.Run(cmd.Context(), pipeline.Request{SourceArtifactID: sourceID, Stages: specs})
				if opts.metricsTextfile != "" {
					if err := metrics.WriteTextfile(opts.metricsTextfile); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: write metrics: %v\n", err)
					}
				}
				return reportRun(cmd, opts.jsonOut, result, runErr)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.stages, "stages", "s", "transcribe,burn_in", "Comma separated stage chain")
	cmd.Flags().StringVarP(&opts.language, "lang", "l", "", "Target language for translate stages without an explicit one")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "srt", "Subtitle format for export stages without an explicit one (srt|vtt)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Stage this file first and use it as the source")
	cmd.Flags().StringVar(&opts.segments, "segments", "", "JSON segments file for burn_in and export stages")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output the run result as JSON")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

func parseStageList(value, fallbackLang, format string) ([]pipeline.StageSpec, error) {
	defaultFormat, err := subtitles.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	var specs []pipeline.StageSpec
	for _, raw := range strings.Split(value, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, param, _ := strings.Cut(raw, ":")
		kind, err := pipeline.ParseStageKind(name)
		if err != nil {
			return nil, err
		}
		spec := pipeline.StageSpec{Kind: kind}
		param = strings.TrimSpace(param)
		switch kind {
		case pipeline.StageTranscribe:
			spec.Language = param
		case pipeline.StageTranslate:
			spec.Language = param
			if spec.Language == "" {
				spec.Language = fallbackLang
			}
			if strings.TrimSpace(spec.Language) == "" {
				return nil, fmt.Errorf("translate needs a target language (translate:<lang> or --lang)")
			}
		case pipeline.StageExportSubtitles:
			spec.Format = defaultFormat
			if param != "" {
				if spec.Format, err = subtitles.ParseFormat(param); err != nil {
					return nil, err
				}
			}
		default:
			if param != "" {
				return nil, fmt.Errorf("stage %s takes no parameter", kind)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// loadSegments reads a segments file. Both the transcription payload shape
// and the segments field of `vidpipe run --json` output are accepted.
func loadSegments(path string) ([]subtitles.Segment, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("resolve segments file: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read segments file: %w", err)
	}
	data = bytes.TrimSpace(data)
	var segments []subtitles.Segment
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &segments)
	} else {
		var doc struct {
			Segments []subtitles.Segment `json:"segments"`
		}
		err = json.Unmarshal(data, &doc)
		segments = doc.Segments
	}
	if err != nil {
		return nil, fmt.Errorf("decode segments file %s: %w", expanded, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("segments file %s has no segments", expanded)
	}
	return segments, nil
}

// attachSegments hands segments to every burn_in and export stage.
func attachSegments(specs []pipeline.StageSpec, segments []subtitles.Segment) ([]pipeline.StageSpec, error) {
	attached := false
	for i := range specs {
		switch specs[i].Kind {
		case pipeline.StageBurnIn, pipeline.StageExportSubtitles:
			specs[i].Segments = segments
			attached = true
		}
	}
	if !attached {
		return nil, errors.New("--segments needs a burn_in or export stage")
	}
	return specs, nil
}

func reportRun(cmd *cobra.Command, jsonOut bool, result pipeline.Result, runErr error) error {
	stageErr, failed := pipeline.AsStageError(runErr)
	if runErr != nil && !failed {
		return runErr
	}

	if jsonOut {
		if !failed {
			return writeJSON(cmd, result)
		}
		if err := writeJSON(cmd, runFailure{
			Result:   result,
			Error:    stageErr.Err.Error(),
			Kind:     stageErr.ErrorKind(),
			Stage:    string(stageErr.Kind),
			LastGood: stageErr.LastGood,
		}); err != nil {
			return err
		}
		return runErr
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(result.Stages)+1)
	for _, s := range result.Stages {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Index+1),
			string(s.Kind),
			"ok",
			stageOutputLabel(s),
			formatDuration(s.Duration),
			stageNotes(s),
		})
	}
	if failed {
		rows = append(rows, []string{
			fmt.Sprintf("%d", stageErr.Index+1),
			string(stageErr.Kind),
			"failed",
			"",
			"",
			stageErr.ErrorKind(),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Stage", "Status", "Output", "Took", "Notes"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	if result.Transcript != "" {
		fmt.Fprintf(out, "Transcript: %s\n", result.Transcript)
	}

	if failed {
		if stageErr.LastGood != nil {
			fmt.Fprintf(out, "Last good artifact: %s (%s)\n", stageErr.LastGood.ID, stageErr.LastGood.URL)
		}
		return runErr
	}
	fmt.Fprintf(out, "Final: %s\n", result.Final.ID)
	fmt.Fprintf(out, "URL: %s\n", result.FinalURL)
	return nil
}

func stageOutputLabel(s pipeline.StageOutput) string {
	switch {
	case s.Artifact != nil:
		return s.Artifact.FileName
	case s.Subtitles != nil:
		return s.Subtitles.FileName
	case len(s.Segments) > 0:
		return fmt.Sprintf("%d segments", len(s.Segments))
	}
	return ""
}

func stageNotes(s pipeline.StageOutput) string {
	var notes []string
	if s.Language != "" {
		notes = append(notes, language.DisplayName(s.Language))
	}
	if s.Degraded {
		notes = append(notes, "degraded: "+s.DegradedReason)
	}
	if s.Artifact != nil && s.Subtitles != nil {
		notes = append(notes, "subtitles "+s.Subtitles.FileName)
	}
	return strings.Join(notes, "; ")
}
