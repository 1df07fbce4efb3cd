package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zeki-aitech/vda5050-client/metric"
)

// queueMetrics holds Prometheus metrics for queue operations.
type queueMetrics struct {
	enqueues prometheus.Counter
	dequeues prometheus.Counter
	drops    prometheus.Counter
	depth    prometheus.Gauge
}

// newQueueMetrics creates and registers queue metrics with the provided
// registry. The prefix becomes the component label and the registry key.
func newQueueMetrics(registry *metric.Registry, prefix string) (*queueMetrics, error) {
	m := &queueMetrics{
		enqueues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "vda5050",
			Subsystem:   "queue",
			Name:        "enqueues_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of queue enqueue operations",
		}),
		dequeues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "vda5050",
			Subsystem:   "queue",
			Name:        "dequeues_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of queue dequeue operations",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "vda5050",
			Subsystem:   "queue",
			Name:        "drops_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of items dropped by Clear or Close",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "vda5050",
			Subsystem:   "queue",
			Name:        "depth",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of items in the queue",
		}),
	}

	if err := registry.RegisterCounter(prefix, "queue_enqueues", m.enqueues); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "queue_dequeues", m.dequeues); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "queue_drops", m.drops); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "queue_depth", m.depth); err != nil {
		return nil, err
	}

	return m, nil
}

// recordEnqueue increments the enqueue counter and updates depth.
func (m *queueMetrics) recordEnqueue(depth int) {
	m.enqueues.Inc()
	m.depth.Set(float64(depth))
}

// recordDequeue increments the dequeue counter and updates depth.
func (m *queueMetrics) recordDequeue(depth int) {
	m.dequeues.Inc()
	m.depth.Set(float64(depth))
}

// recordDrops adds n to the drop counter and updates depth.
func (m *queueMetrics) recordDrops(n, depth int) {
	m.drops.Add(float64(n))
	m.depth.Set(float64(depth))
}
