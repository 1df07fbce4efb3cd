package client

import (
	"log/slog"

	"github.com/zeki-aitech/vda5050-client/logging"
	"github.com/zeki-aitech/vda5050-client/metric"
	"github.com/zeki-aitech/vda5050-client/transport"
)

// TransportFactory builds the transport a client connects through. The
// client assembles the full transport options, will message included, and
// hands them to the factory. The default factory returns a Paho MQTT
// transport; tests install a factory backed by the in-process broker.
type TransportFactory func(transport.Options) transport.Transport

// Option configures a client.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *metric.ClientMetrics
	validation *bool
	factory    TransportFactory
}

// WithLogger sets the client logger. Defaults to the component logger for
// the client's role.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics attaches the client instrument set. Without it nothing is
// recorded.
func WithMetrics(metrics *metric.ClientMetrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithValidation overrides the configuration's validation switch for this
// client.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validation = &enabled
	}
}

// WithTransportFactory replaces how the client builds its transport. Tests
// use it to attach clients to an in-process broker.
func WithTransportFactory(factory TransportFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

func applyOptions(component string, opts ...Option) *options {
	o := &options{
		logger: logging.ComponentLogger(component),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.factory == nil {
		logger := o.logger
		o.factory = func(topts transport.Options) transport.Transport {
			return transport.NewPaho(topts, logger)
		}
	}
	return o
}
