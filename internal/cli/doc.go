// Package cli implements the gha command-line interface.
//
// Commands are Cobra commands that load config into a session, build a
// client for the greenhouse agent, and hand off to the packages doing the
// work:
//
//	gha dashboard              - interactive TUI (internal/dashboard)
//	gha switches               - list switches once
//	gha metrics [--raw]        - show sensor readings once
//	gha pin <pin|name> <state> - drive a switch on/off/toggle
//	gha override <pin|name> <state> - take or release manual control
//	gha doctor [--fix]         - diagnose config and agent reachability
//	gha simulate               - run an in-memory agent (internal/simulator)
//	gha init / config set-host - write .gha.yaml
//
// # Flag Handling
//
// Global flags (--config, --api-host, --json) live on the root command.
// With --json every command writes a JSONEnvelope to stdout, including
// failures, so scripts get {success, data, error} regardless of outcome.
package cli
