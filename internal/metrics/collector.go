package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pixelbench"

// Collector exports benchmark timings as prometheus metrics.
type Collector struct {
	calls   *prometheus.HistogramVec
	phases  *prometheus.HistogramVec
	speedup *prometheus.GaugeVec
	records prometheus.Counter
}

// NewCollector creates the metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	buckets := prometheus.ExponentialBuckets(1e-6, 4, 12)
	c := &Collector{
		calls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_duration_seconds",
			Help:      "Wall-clock time of one timed filter call.",
			Buckets:   buckets,
		}, []string{"filter", "backend"}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Mean time per call of one raw bridging phase.",
			Buckets:   buckets,
		}, []string{"filter", "phase"}),
		speedup: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speedup_ratio",
			Help:      "Baseline mean over optimized mean of the last run.",
		}, []string{"filter", "resolution"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Benchmark records produced.",
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, m := range []prometheus.Collector{c.calls, c.phases, c.speedup, c.records} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveCall records one timed filter call.
func (c *Collector) ObserveCall(filter, backend string, d time.Duration) {
	c.calls.WithLabelValues(filter, backend).Observe(d.Seconds())
}

// ObserveRecord records the derived values of a finished filter.
func (c *Collector) ObserveRecord(r Record) {
	c.records.Inc()
	c.speedup.WithLabelValues(r.FilterName, r.Resolution).Set(r.Speedup)
	for phase, ms := range r.Phases {
		c.phases.WithLabelValues(r.FilterName, phase).Observe(ms / 1e3)
	}
}
