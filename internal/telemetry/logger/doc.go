// Package logger provides structured logging for kvcache.
//
// It wraps log/slog:
//
//   - logger.go: handler selection (JSON or text), level filtering and
//     runtime level changes
//   - truncate.go: shortening of oversized string attributes, so cached
//     values never flood the log
//
// Components receive a *slog.Logger obtained from Logger.Slog.
package logger
