// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The anonymization stage uses it to check whether the original carries
// audio and to verify that a remuxed output has exactly one audio stream.
//
// Key types:
//   - Prober: runs ffprobe through a procexec.Runner
//   - Result: parsed streams and format metadata
//
// Helper methods on Result provide stream counts, duration parsing, and
// bitrate extraction.
package ffprobe
