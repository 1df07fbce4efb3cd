package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics contains the client-level instrument set shared by the
// session and the role clients. All Record/Set methods are nil-safe so a
// client built without metrics skips recording entirely.
type ClientMetrics struct {
	// Message flow
	MessagesPublished  *prometheus.CounterVec
	MessagesReceived   *prometheus.CounterVec
	MessagesDropped    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec

	// Session health
	Reconnects       prometheus.Counter
	HandlerPanics    prometheus.Counter
	InboundQueueSize prometheus.Gauge
	ConnectionState  prometheus.Gauge
}

// NewClientMetrics creates a ClientMetrics instance with all instruments.
// The instruments are not registered; NewRegistry does that, or callers
// can register them with a registry of their own.
func NewClientMetrics() *ClientMetrics {
	return &ClientMetrics{
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total number of messages published, by message type",
			},
			[]string{"message_type"},
		),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of messages received, by message type",
			},
			[]string{"message_type"},
		),

		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Subsystem: "messages",
				Name:      "dropped_total",
				Help:      "Total number of inbound messages dropped before dispatch",
			},
			[]string{"reason"},
		),

		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Subsystem: "validation",
				Name:      "failures_total",
				Help:      "Total number of schema validation failures",
			},
			[]string{"message_type", "direction"},
		),

		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Name:      "reconnects_total",
				Help:      "Total number of broker reconnections",
			},
		),

		HandlerPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vda5050",
				Name:      "handler_panics_total",
				Help:      "Total number of panics recovered in message handlers",
			},
		),

		InboundQueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vda5050",
				Name:      "inbound_queue_depth",
				Help:      "Current depth of the inbound dispatch queue",
			},
		),

		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vda5050",
				Name:      "connection_state",
				Help:      "Session connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)",
			},
		),
	}
}

// RecordPublished increments the published counter for a message type.
func (c *ClientMetrics) RecordPublished(messageType string) {
	if c == nil {
		return
	}
	c.MessagesPublished.WithLabelValues(messageType).Inc()
}

// RecordReceived increments the received counter for a message type.
func (c *ClientMetrics) RecordReceived(messageType string) {
	if c == nil {
		return
	}
	c.MessagesReceived.WithLabelValues(messageType).Inc()
}

// RecordDropped increments the dropped counter with a reason label.
func (c *ClientMetrics) RecordDropped(reason string) {
	if c == nil {
		return
	}
	c.MessagesDropped.WithLabelValues(reason).Inc()
}

// RecordValidationFailure increments the validation failure counter.
// Direction is "inbound" or "outbound".
func (c *ClientMetrics) RecordValidationFailure(messageType, direction string) {
	if c == nil {
		return
	}
	c.ValidationFailures.WithLabelValues(messageType, direction).Inc()
}

// RecordReconnect increments the reconnection counter.
func (c *ClientMetrics) RecordReconnect() {
	if c == nil {
		return
	}
	c.Reconnects.Inc()
}

// RecordHandlerPanic increments the recovered-panic counter.
func (c *ClientMetrics) RecordHandlerPanic() {
	if c == nil {
		return
	}
	c.HandlerPanics.Inc()
}

// SetInboundQueueDepth updates the inbound queue depth gauge.
func (c *ClientMetrics) SetInboundQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.InboundQueueSize.Set(float64(depth))
}

// SetConnectionState updates the connection state gauge.
func (c *ClientMetrics) SetConnectionState(state int) {
	if c == nil {
		return
	}
	c.ConnectionState.Set(float64(state))
}

// collectors returns every instrument for bulk registration.
func (c *ClientMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.MessagesPublished,
		c.MessagesReceived,
		c.MessagesDropped,
		c.ValidationFailures,
		c.Reconnects,
		c.HandlerPanics,
		c.InboundQueueSize,
		c.ConnectionState,
	}
}
