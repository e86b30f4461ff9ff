// Package repl provides interactive mode for kvcache-cli.
//
//   - repl.go: Main loop, line splitting and command dispatch
//   - completer.go: Command synopses for help and completion
//   - history.go: Command history persistence
package repl
