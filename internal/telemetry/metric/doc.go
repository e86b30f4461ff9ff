// Package metric provides Prometheus metrics for kvcache.
//
//   - prometheus.go: Registry with the server's collectors and an HTTP handler
//   - collector.go: build information collector
//
// Metrics include:
//
//   - active and total client connections
//   - commands processed, by command
//   - commands skipped, by reason
//   - stored keys and lazily expired keys
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
