// Package whisper invokes the external speech-to-text processor.
//
// Two engines are supported. The script engine runs a python helper that
// prints a JSON document on stdout while its diagnostics go to stderr. The
// whisperx engine runs WhisperX through uvx and reads the JSON file it writes
// into a scratch directory. Either way the caller receives only the payload
// bytes; parsing and validation belong to the transcription stage.
package whisper
