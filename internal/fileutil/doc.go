// Package fileutil copies artifact files with integrity checks.
package fileutil
