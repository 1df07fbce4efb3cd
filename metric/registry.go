package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Registrar defines the interface for registering component-specific metrics.
type Registrar interface {
	RegisterCounter(component, name string, counter prometheus.Counter) error
	RegisterGauge(component, name string, gauge prometheus.Gauge) error
	RegisterHistogram(component, name string, histogram prometheus.Histogram) error
	RegisterCounterVec(component, name string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(component, name string, gaugeVec *prometheus.GaugeVec) error
	RegisterHistogramVec(component, name string, histogramVec *prometheus.HistogramVec) error
	Unregister(component, name string) bool
}

// Registry manages the registration and lifecycle of metrics. It owns a
// dedicated prometheus.Registry rather than the global default so two
// clients in one process never collide.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	client             *ClientMetrics
	registered         map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a registry with the client instrument set and Go
// runtime collectors pre-registered.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		client:             NewClientMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(r.client.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// ClientMetrics returns the pre-registered client instrument set.
func (r *Registry) ClientMetrics() *ClientMetrics {
	return r.client
}

// register adds a collector under component.name, rejecting duplicates at
// both the registry and Prometheus level.
func (r *Registry) register(op, component, name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := component + "." + name

	if _, exists := r.registered[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for component %s", name, component),
			"Registry", op, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "Registry", op,
				fmt.Sprintf("prometheus conflict for metric %s", name))
		}
		return errors.WrapFatal(err, "Registry", op, "register collector with prometheus")
	}

	r.registered[key] = c
	return nil
}

// RegisterCounter registers a counter metric for a component.
func (r *Registry) RegisterCounter(component, name string, counter prometheus.Counter) error {
	return r.register("RegisterCounter", component, name, counter)
}

// RegisterGauge registers a gauge metric for a component.
func (r *Registry) RegisterGauge(component, name string, gauge prometheus.Gauge) error {
	return r.register("RegisterGauge", component, name, gauge)
}

// RegisterHistogram registers a histogram metric for a component.
func (r *Registry) RegisterHistogram(component, name string, histogram prometheus.Histogram) error {
	return r.register("RegisterHistogram", component, name, histogram)
}

// RegisterCounterVec registers a labeled counter metric for a component.
func (r *Registry) RegisterCounterVec(component, name string, counterVec *prometheus.CounterVec) error {
	return r.register("RegisterCounterVec", component, name, counterVec)
}

// RegisterGaugeVec registers a labeled gauge metric for a component.
func (r *Registry) RegisterGaugeVec(component, name string, gaugeVec *prometheus.GaugeVec) error {
	return r.register("RegisterGaugeVec", component, name, gaugeVec)
}

// RegisterHistogramVec registers a labeled histogram metric for a component.
func (r *Registry) RegisterHistogramVec(component, name string, histogramVec *prometheus.HistogramVec) error {
	return r.register("RegisterHistogramVec", component, name, histogramVec)
}

// Unregister removes a metric from the registry. It reports whether the
// metric was found and removed.
func (r *Registry) Unregister(component, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := component + "." + name

	collector, exists := r.registered[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registered, key)
	}

	return success
}
