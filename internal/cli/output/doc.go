// Package output provides output formatting for kvcache-cli.
//
//   - formatter.go: Formatter interface, factory and plain text output
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//
// Text output mirrors redis-cli; json and yaml are meant for scripts.
package output
