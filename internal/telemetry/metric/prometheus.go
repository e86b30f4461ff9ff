package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kvcache"

// Registry holds all application metrics.
//
// Recording methods are safe to call on a nil *Registry, so components can
// run with metrics disabled.
type Registry struct {
	reg *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	CommandsTotal     *prometheus.CounterVec
	CommandErrors     *prometheus.CounterVec
	Keys              prometheus.Gauge
	KeysExpired       prometheus.Counter
}

// NewRegistry creates a registry with the kvcache metrics, the Go runtime
// and process collectors, and any extra collectors given.
func NewRegistry(extra ...prometheus.Collector) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of decoded commands.",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Total number of commands skipped without a reply.",
		}, []string{"reason"}),
		Keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keys",
			Help:      "Number of entries held by the store.",
		}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Total number of entries removed by lazy expiry.",
		}),
	}

	r.reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.CommandsTotal,
		r.CommandErrors,
		r.Keys,
		r.KeysExpired,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range extra {
		r.reg.MustRegister(c)
	}

	return r
}

// Gatherer returns the underlying registry for scraping.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records an evicted connection.
func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// Command records one decoded command.
func (r *Registry) Command(name string) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(name).Inc()
}

// CommandError records a command skipped for reason.
func (r *Registry) CommandError(reason string) {
	if r == nil {
		return
	}
	r.CommandErrors.WithLabelValues(reason).Inc()
}

// SetKeys records the store size.
func (r *Registry) SetKeys(n int) {
	if r == nil {
		return
	}
	r.Keys.Set(float64(n))
}

// KeyExpired records one lazily expired entry.
func (r *Registry) KeyExpired() {
	if r == nil {
		return
	}
	r.KeysExpired.Inc()
}
