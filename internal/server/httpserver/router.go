package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/kvcache/internal/infra/buildinfo"
	"github.com/yndnr/kvcache/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics is exposed at /metrics. Nil disables the route.
	Metrics *metric.Registry

	// Ready reports whether the Redis listener is serving. Nil means
	// always ready.
	Ready func() bool

	// Build is reported by /version.
	Build buildinfo.Info

	// Logger for request logging.
	Logger *slog.Logger
}

// NewRouter creates the operational HTTP router:
//
//	GET /metrics  Prometheus exposition
//	GET /healthz  liveness and readiness
//	GET /version  build information
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil && !cfg.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "starting",
				"time":   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg.Build)
	})

	return Chain(mux, RequestID(), Recover(logger), AccessLog(logger))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
