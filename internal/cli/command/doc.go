// Package command provides CLI command definitions for kvcache-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, interactive mode
//   - commands.go: ping, echo, set, get and do
//
// Each command dials the server, sends one request and prints the reply
// through internal/cli/output.
package command
