// Package metrics defines the Prometheus collectors for pipeline runs.
//
// Collectors register on the default registry. The CLI is short lived, so
// rather than serving /metrics it can dump the registry to a node_exporter
// textfile after a run (see WriteTextfile).
package metrics
