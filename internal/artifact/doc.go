// Package artifact implements the flat, append-only artifact store.
//
// Every artifact is an immutable file in one directory, named
// <prefix>-<uuid>.<ext>, and registered in a SQLite index that records its
// kind, parent, and degraded flag. Writers produce into a hidden
// ".partial-" file and commit by linking it into place, so a half-written
// output is never addressable and an existing artifact is never replaced.
//
// Pipeline runs hold a shared lease on the store; pruning takes the exclusive
// lease and refuses to run while any pipeline is active.
package artifact
