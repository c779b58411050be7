// Package stage holds the readiness contract shared by pipeline stages.
package stage
