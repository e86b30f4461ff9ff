// Package main provides the entry point for kvcache-cli.
//
// kvcache-cli is a small client for kvcache-server, supporting both
// single-command mode and an interactive REPL:
//
//	kvcache-cli ping
//	kvcache-cli set --px 5000 session abc
//	kvcache-cli get session
//	kvcache-cli --server 10.0.0.5:6379
package main
