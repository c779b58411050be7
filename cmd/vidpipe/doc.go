// Package main hosts the vidpipe CLI.
//
// The Cobra command tree stages source videos into the artifact store, runs
// stage chains through the pipeline orchestrator, inspects and prunes stored
// artifacts, and reports environment readiness. Configuration loading and
// logger setup happen once per invocation in commandContext so subcommands
// stay declarative; the processing itself lives in internal packages.
package main
