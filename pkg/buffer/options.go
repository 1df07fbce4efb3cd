package buffer

import (
	"github.com/zeki-aitech/vda5050-client/metric"
)

// Option configures queue behavior using the functional options pattern.
type Option[T any] func(*queueOptions[T])

// queueOptions holds internal configuration for queue instances.
// Stats are always collected; metrics are optional via WithMetrics.
type queueOptions[T any] struct {
	initialCapacity int
	dropCallback    DropCallback[T]

	// metricsReg is optional - if provided, queue activity is also exposed
	// as Prometheus metrics
	metricsReg *metric.Registry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string
}

// WithInitialCapacity preallocates the backing slice for the expected
// queue depth. Defaults to 16.
func WithInitialCapacity[T any](n int) Option[T] {
	return func(opts *queueOptions[T]) {
		if n > 0 {
			opts.initialCapacity = n
		}
	}
}

// WithMetrics enables Prometheus metrics export for queue activity.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[T any](registry *metric.Registry, prefix string) Option[T] {
	return func(opts *queueOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithDropCallback sets a callback invoked for each item dropped by Clear
// or Close.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *queueOptions[T]) {
		opts.dropCallback = callback
	}
}

// applyOptions applies functional options to create final queue configuration.
func applyOptions[T any](options ...Option[T]) *queueOptions[T] {
	opts := &queueOptions[T]{
		initialCapacity: 16,
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
