package river

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/riverkit/metric"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// riverMetrics holds Prometheus metrics for river message handling.
type riverMetrics struct {
	received   prometheus.Counter
	dispatched *prometheus.CounterVec // By outcome (success/error)
	severe     prometheus.Counter
	panics     prometheus.Counter

	validationDuration prometheus.Histogram
}

// newRiverMetrics creates and registers river metrics with the provided
// registry.
func newRiverMetrics(registry *metric.MetricsRegistry) (*riverMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &riverMetrics{
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "river",
			Name:      "messages_received_total",
			Help:      "Total number of raw messages handled by the river",
		}),

		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "river",
			Name:      "messages_dispatched_total",
			Help:      "Total number of messages dispatched to listeners",
		}, []string{"outcome"}), // outcome: success, error

		severe: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "river",
			Name:      "severe_findings_total",
			Help:      "Total number of messages rejected with a severe finding",
		}),

		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "river",
			Name:      "handler_panics_total",
			Help:      "Total number of panics recovered inside HandleMessage",
		}),

		validationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "riverkit",
			Subsystem: "river",
			Name:      "validation_duration_seconds",
			Help:      "Parse plus validation-chain duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}

	if err := registry.RegisterCounter("river", "messages_received", m.received); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("river", "messages_dispatched", m.dispatched); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("river", "severe_findings", m.severe); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("river", "handler_panics", m.panics); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("river", "validation_duration", m.validationDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *riverMetrics) recordReceived() {
	if m == nil {
		return
	}
	m.received.Inc()
}

func (m *riverMetrics) recordDispatch(outcome string, severe bool) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(outcome).Inc()
	if severe {
		m.severe.Inc()
	}
}

func (m *riverMetrics) recordPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

func (m *riverMetrics) observeValidation(d time.Duration) {
	if m == nil {
		return
	}
	m.validationDuration.Observe(d.Seconds())
}
