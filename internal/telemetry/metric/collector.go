package metric

import "github.com/prometheus/client_golang/prometheus"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	GoVersion string
}

// Collector exports kvcache_build_info, a constant 1 labelled with the
// build's version details.
type Collector struct {
	info BuildInfo
	desc *prometheus.Desc
}

// NewCollector creates a build information collector.
func NewCollector(info BuildInfo) *Collector {
	return &Collector{
		info: info,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "build_info"),
			"Build information of the running kvcache binary.",
			[]string{"version", "commit", "goversion"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 1,
		c.info.Version, c.info.Commit, c.info.GoVersion)
}
