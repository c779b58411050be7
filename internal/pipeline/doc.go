// Package pipeline sequences media stages for one request.
//
// A run starts from a source artifact and applies the requested stages in
// order. Video stages replace the current artifact; transcription and
// translation carry segments forward for burn-in or subtitle export. The
// first failing stage stops the chain. The returned *StageError names the
// stage, its error kind, and the last artifact a completed stage produced, so
// callers can still hand out partial results.
//
// Each stage runs under its own deadline (pipeline.stage_timeout_seconds);
// expiry is reported as services.ErrStageTimeout. A run holds a shared lease
// on the artifact store so maintenance cannot prune files underneath it.
package pipeline
