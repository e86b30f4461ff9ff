// Package main provides the entry point for kvcache-server.
//
// The server is an in-memory key-value cache that speaks a subset of the
// Redis protocol over plaintext TCP:
//
//   - PING, ECHO, SET (with PX/EX expiry) and GET
//   - One event loop owning the key space, fed by per-connection readers
//   - Prometheus metrics, health and version on a separate HTTP listener
//
// Usage:
//
//	kvcache-server [flags]
//	kvcache-server --config /etc/kvcache/kvcache.yaml
//
// Configuration precedence, lowest first: built-in defaults, the YAML
// file, KVCACHE_* environment variables, command-line flags.
package main
