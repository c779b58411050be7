// Package textutil sanitizes user-supplied text before it becomes part of a
// file name inside the artifact store or an export destination.
package textutil
