// Package procexec runs external processors with separated output channels.
//
// Stdout is returned as the structured payload and stderr as diagnostics, so
// free-form log text from a helper script can never corrupt the result a
// stage parses. Canceling the context terminates the whole process group.
package procexec
