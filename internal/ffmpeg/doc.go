// Package ffmpeg builds and runs the two ffmpeg invocations the pipeline
// needs: muxing a video stream with audio from another file, and burning a
// subtitle file into the picture.
//
// Errors carry the procexec.ExitError from the run so callers can attach
// ffmpeg's diagnostics to their own failure markers.
package ffmpeg
