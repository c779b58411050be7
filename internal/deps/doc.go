// Package deps checks that external programs and helper scripts exist.
package deps
