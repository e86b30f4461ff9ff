// Package config provides CLI configuration for kvcache.
//
//   - spec.go: CLIConfig struct with environment bindings
//   - loader.go: Loading from a dotenv file and the environment
//
// Priority (highest to lowest): command-line flags, environment
// variables (KVCACHE_CLI_*), the dotenv file (~/.kvcache/cli.env),
// built-in defaults.
package config
