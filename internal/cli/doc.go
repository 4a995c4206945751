// Package cli wires together the Cobra command tree for the reword binary.
//
// It defines the root command and all subcommands (ci, range, config, cache,
// version), binds flags, reads configuration, invokes the reword engine, and
// returns deterministic exit codes for CI gating.
package cli
