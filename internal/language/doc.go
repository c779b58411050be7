// Package language normalizes language codes for transcription hints and
// translation targets.
//
// Common ISO 639 codes and English word forms resolve through a local table;
// anything else is parsed as a BCP-47 tag.
package language
