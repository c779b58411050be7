// Package subtitles builds numbered subtitle documents from timed segments.
//
// Segments are rendered in caller order. Text is trimmed, carriage returns are
// stripped, and the result is NFC-normalized; segments left empty are dropped
// without leaving a gap in the cue numbering. A document with no cues is an
// error, never an empty file.
package subtitles
