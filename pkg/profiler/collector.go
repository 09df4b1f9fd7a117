package profiler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "profiled"

// Collector exposes the aggregates of a Profiler as Prometheus counters.
// Values are read from a fresh snapshot on every scrape.
type Collector struct {
	profiler *Profiler
	duration *prometheus.Desc
	calls    *prometheus.Desc
}

func NewCollector(p *Profiler, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		profiler: p,
		duration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "duration_seconds_total"),
			"Total time spent in a profiled routine.",
			[]string{"name"}, nil,
		),
		calls: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "calls_total"),
			"Number of recorded calls of a profiled routine.",
			[]string{"name"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.duration
	ch <- c.calls
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.profiler.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, e.TotalDuration.Seconds(), e.Name)
		ch <- prometheus.MustNewConstMetric(c.calls, prometheus.CounterValue, float64(e.Count), e.Name)
	}
}
