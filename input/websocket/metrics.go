package websocket

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/riverkit/metric"
)

// wsMetrics holds Prometheus metrics for the WebSocket ingress.
type wsMetrics struct {
	activeConnections prometheus.Gauge
	messagesReceived  prometheus.Counter
	bytesReceived     prometheus.Counter
	errors            *prometheus.CounterVec // By error_type (upgrade/read/frame_type)
}

// newWSMetrics creates and registers ingress metrics with the provided
// registry.
func newWSMetrics(registry *metric.MetricsRegistry) (*wsMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &wsMetrics{
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "riverkit",
			Subsystem: "websocket_input",
			Name:      "active_connections",
			Help:      "Number of currently open WebSocket connections",
		}),

		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "websocket_input",
			Name:      "messages_received_total",
			Help:      "Total number of text frames forwarded to the river",
		}),

		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "websocket_input",
			Name:      "bytes_received_total",
			Help:      "Total payload bytes received over WebSocket",
		}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riverkit",
			Subsystem: "websocket_input",
			Name:      "errors_total",
			Help:      "Total number of ingress errors",
		}, []string{"error_type"}),
	}

	if err := registry.RegisterGauge("websocket_input", "active_connections", m.activeConnections); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("websocket_input", "messages_received", m.messagesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("websocket_input", "bytes_received", m.bytesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("websocket_input", "errors", m.errors); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *wsMetrics) connectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

func (m *wsMetrics) connectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *wsMetrics) recordMessage(bytes int) {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
	m.bytesReceived.Add(float64(bytes))
}

func (m *wsMetrics) recordError(errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errorType).Inc()
}
