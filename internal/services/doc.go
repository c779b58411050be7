// Package services defines shared utilities consumed by the pipeline stages and
// their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and artifact IDs for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     pipeline's error taxonomy (input_invalid, burn_in_failed, ...).
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
