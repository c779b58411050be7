// Package logging assembles structured slog loggers for the pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code tags each line
// with the request, stage, and artifact it is working on. Degraded outcomes
// are logged through WarnWithContext so they always carry an event type,
// a hint, and the user-facing impact.
package logging
