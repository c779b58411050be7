// Package transcribe turns a staged video into timed transcript segments.
//
// The stage hands the video to a whisper.Processor and parses the JSON
// payload it returns. Only a top-level object with a "segments" array is
// accepted; anything else, including diagnostics mixed into the payload, is a
// parse failure rather than a best-effort read. Segments with unusable timing
// are discarded. No artifact is written here.
package transcribe
