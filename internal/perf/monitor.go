// Package perf wraps the remote-store primitives with timing instrumentation:
// every call is measured and recorded in a bounded rolling window, aggregate
// metrics are recomputed after each sample, and threshold breaches raise
// advisory notifications. Instrumentation never changes an operation's result.
package perf

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"fleet-console/internal/notify"
)

type OpType string

const (
	OpRead   OpType = "read"
	OpWrite  OpType = "write"
	OpUpdate OpType = "update"
	OpPush   OpType = "push"
)

const (
	// SlowQueryThreshold flags individual operations.
	SlowQueryThreshold = 2 * time.Second
	// ErrorRateThreshold flags the aggregate failure ratio.
	ErrorRateThreshold = 0.10
	// MaxSamples bounds the rolling window; oldest samples are dropped first.
	MaxSamples = 1000
)

type Sample struct {
	ID         string  `json:"id"`
	Type       OpType  `json:"type"`
	DurationMs float64 `json:"durationMs"`
	Success    bool    `json:"success"`
	Timestamp  string  `json:"timestamp"`
	Error      string  `json:"error,omitempty"`
}

type Metrics struct {
	AvgQueryTimeMs float64 `json:"avgQueryTimeMs"`
	TotalQueries   int     `json:"totalQueries"`
	SlowQueries    int     `json:"slowQueries"`
	ErrorRate      float64 `json:"errorRate"`
}

type Monitor struct {
	mu      sync.Mutex
	samples []Sample
	metrics Metrics

	notifier *notify.Center
	now      func() time.Time
	prom     *promCollectors
}

type Options struct {
	// Now supplies both timestamps and duration measurement; tests inject a
	// stepped clock.
	Now func() time.Time
	// Registerer, when set, additionally publishes per-operation duration
	// histograms and failure counters.
	Registerer prometheus.Registerer
}

func NewMonitor(notifier *notify.Center) *Monitor {
	return NewMonitorWithOptions(notifier, Options{})
}

func NewMonitorWithOptions(notifier *notify.Center, opts Options) *Monitor {
	m := &Monitor{notifier: notifier, now: opts.Now}
	if m.now == nil {
		m.now = time.Now
	}
	if opts.Registerer != nil {
		m.prom = newPromCollectors(opts.Registerer)
	}
	return m
}

// Track measures fn, records a sample, and re-raises fn's error unchanged.
func (m *Monitor) Track(op OpType, fn func() error) error {
	start := m.now()
	err := fn()
	duration := m.now().Sub(start)

	m.record(op, duration, err)
	return err
}

func (m *Monitor) record(op OpType, duration time.Duration, opErr error) {
	sample := Sample{
		ID:         "op_" + uuid.NewString(),
		Type:       op,
		DurationMs: float64(duration) / float64(time.Millisecond),
		Success:    opErr == nil,
		Timestamp:  m.now().UTC().Format(time.RFC3339Nano),
	}
	if opErr != nil {
		sample.Error = opErr.Error()
	}

	m.mu.Lock()
	m.samples = append(m.samples, sample)
	if len(m.samples) > MaxSamples {
		m.samples = m.samples[len(m.samples)-MaxSamples:]
	}
	m.recomputeLocked()
	metrics := m.metrics
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.observe(sample)
	}
	m.alert(sample, metrics)
}

func (m *Monitor) recomputeLocked() {
	if len(m.samples) == 0 {
		m.metrics = Metrics{}
		return
	}

	var totalMs float64
	slow := 0
	failed := 0
	for _, s := range m.samples {
		totalMs += s.DurationMs
		if s.DurationMs > float64(SlowQueryThreshold/time.Millisecond) {
			slow++
		}
		if !s.Success {
			failed++
		}
	}

	m.metrics = Metrics{
		AvgQueryTimeMs: totalMs / float64(len(m.samples)),
		TotalQueries:   len(m.samples),
		SlowQueries:    slow,
		ErrorRate:      float64(failed) / float64(len(m.samples)),
	}
}

// alert raises advisory notifications. It never cancels or retries anything.
func (m *Monitor) alert(sample Sample, metrics Metrics) {
	if m.notifier == nil {
		return
	}

	thresholdMs := float64(SlowQueryThreshold / time.Millisecond)
	if sample.DurationMs > thresholdMs {
		m.notifier.Notify(notify.Warning, fmt.Sprintf(
			"slow %s query: %.2fms (threshold %.0fms)", sample.Type, sample.DurationMs, thresholdMs))
	}
	if metrics.ErrorRate > ErrorRateThreshold {
		m.notifier.Notify(notify.Warning, fmt.Sprintf(
			"high error rate: %.1f%% (threshold %.1f%%)", metrics.ErrorRate*100, ErrorRateThreshold*100))
	}
}

func (m *Monitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Samples returns a copy of the retained window, oldest first.
func (m *Monitor) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Clear resets the window and aggregates. In-flight operations are unaffected.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.metrics = Metrics{}
}

type exportReport struct {
	Timestamp  string   `json:"timestamp"`
	Metrics    Metrics  `json:"metrics"`
	Operations []Sample `json:"operations"`
}

// Export renders a JSON report with the aggregates and the last n operations.
func (m *Monitor) Export(n int) ([]byte, error) {
	m.mu.Lock()
	samples := m.samples
	if n > 0 && len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	report := exportReport{
		Timestamp:  m.now().UTC().Format(time.RFC3339),
		Metrics:    m.metrics,
		Operations: append([]Sample(nil), samples...),
	}
	m.mu.Unlock()

	return json.MarshalIndent(report, "", "  ")
}
