// Package httpserver provides the operational HTTP server for kvcache.
//
// It uses the Go standard library net/http and serves only out-of-band
// endpoints: Prometheus metrics, health and build version. Cache traffic
// goes through the Redis protocol server.
package httpserver
