// Package logs reads the vidpipe log file for the CLI.
//
// Last returns the newest lines that match a Filter using a bounded ring
// buffer, and Follow polls for appended lines until its context ends. JSON
// lines are matched on their request_id, stage, and artifact_id fields;
// console lines fall back to substring matching.
package logs
