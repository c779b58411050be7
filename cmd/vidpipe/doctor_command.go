package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
	"vidpipe/internal/deps"
	"vidpipe/internal/preflight"
	"vidpipe/internal/stage"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools, and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *artifact.Store) error {
				orch, err := ctx.newOrchestrator(cfg, store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				checks := preflight.RunAll(cmd.Context(), cfg)
				writeSection(out, "Environment", colorize, preflightLines(checks, colorize))

				statuses := preflight.CheckSystemDeps(cfg)
				writeSection(out, "Dependencies", colorize, dependencyLines(statuses, colorize))

				health := orch.HealthCheck(cmd.Context())
				writeSection(out, "Stages", colorize, healthLines(health, colorize))

				if !stage.AllReady(health) {
					fmt.Fprintln(out, "Some stages cannot run; requests that include them will fail")
				}
				problems := len(preflight.Blocking(checks)) + len(deps.Missing(statuses))
				if problems > 0 {
					return fmt.Errorf("doctor found %d blocking problem(s)", problems)
				}
				fmt.Fprintln(out, "All required checks passed")
				return nil
			})
		},
	}
}

func writeSection(out io.Writer, title string, colorize bool, lines []string) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		switch {
		case r.Passed:
		case r.Optional:
			kind = statusWarn
		default:
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	missing := deps.Missing(statuses)
	summaryKind := statusOK
	summary := fmt.Sprintf("%d of %d available", len(statuses)-countUnavailable(statuses), len(statuses))
	if len(missing) > 0 {
		summaryKind = statusError
	}

	lines := []string{renderStatusLine("Summary", summaryKind, summary, colorize)}
	for _, s := range statuses {
		kind := statusOK
		detail := "Ready"
		if s.Resolved != "" {
			detail = fmt.Sprintf("Ready (%s)", s.Resolved)
		}
		if !s.Available {
			kind = statusError
			if s.Optional {
				kind = statusWarn
			}
			detail = s.Detail
			if s.Description != "" {
				detail += "; " + s.Description
			}
		}
		lines = append(lines, renderStatusLine(s.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, s := range missing {
			names = append(names, s.Name)
		}
		lines = append(lines, statusIndent+"Missing dependencies: "+strings.Join(names, ", "))
	}
	return lines
}

func countUnavailable(statuses []deps.Status) int {
	n := 0
	for _, s := range statuses {
		if !s.Available {
			n++
		}
	}
	return n
}

func healthLines(records []stage.Health, colorize bool) []string {
	lines := make([]string, 0, len(records))
	for _, h := range records {
		kind := statusOK
		switch {
		case !h.Ready:
			kind = statusError
		case h.Detail != "":
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(h.Name, kind, h.Detail, colorize))
	}
	return lines
}
