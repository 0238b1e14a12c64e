package perf

import "github.com/prometheus/client_golang/prometheus"

type promCollectors struct {
	durations *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

func newPromCollectors(reg prometheus.Registerer) *promCollectors {
	p := &promCollectors{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fleet_console",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of remote-store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet_console",
			Subsystem: "store",
			Name:      "operation_failures_total",
			Help:      "Failed remote-store operations.",
		}, []string{"type"}),
	}
	reg.MustRegister(p.durations, p.failures)
	return p
}

func (p *promCollectors) observe(s Sample) {
	p.durations.WithLabelValues(string(s.Type)).Observe(s.DurationMs / 1000)
	if !s.Success {
		p.failures.WithLabelValues(string(s.Type)).Inc()
	}
}
