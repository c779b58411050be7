// Package anonymize produces a face-blurred copy of a video that keeps the
// original audio.
//
// The blur script writes a video-only intermediate, which is registered as
// its own artifact. ffmpeg then copies its video stream and takes the audio
// from the original. A remux that fails, or that yields anything other than
// one audio stream when the original had audio, fails the stage with
// services.ErrRemuxFailed unless the video-only fallback is enabled, in
// which case the result is marked degraded.
package anonymize
