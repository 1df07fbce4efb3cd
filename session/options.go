package session

import (
	"log/slog"
	"time"

	"github.com/zeki-aitech/vda5050-client/logging"
	"github.com/zeki-aitech/vda5050-client/metric"
	"github.com/zeki-aitech/vda5050-client/pkg/retry"
	"github.com/zeki-aitech/vda5050-client/transport"
)

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger         *slog.Logger
	metrics        *metric.ClientMetrics
	backoff        retry.Config
	connectTimeout time.Duration
	quiesce        time.Duration
}

// WithLogger sets the session logger. Defaults to the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics attaches the client instrument set. Without it the session
// records nothing; all metric calls are nil-safe.
func WithMetrics(metrics *metric.ClientMetrics) Option {
	return func(o *sessionOptions) {
		o.metrics = metrics
	}
}

// WithBackoff overrides the reconnect backoff progression. Tests shrink it
// to keep reconnection fast.
func WithBackoff(cfg retry.Config) Option {
	return func(o *sessionOptions) {
		o.backoff = cfg
	}
}

// WithConnectTimeout bounds each reconnect attempt's broker connect.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *sessionOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithDisconnectQuiesce sets how long Close waits for in-flight QoS 1 flows
// before dropping the network connection.
func WithDisconnectQuiesce(d time.Duration) Option {
	return func(o *sessionOptions) {
		if d >= 0 {
			o.quiesce = d
		}
	}
}

func applyOptions(options ...Option) *sessionOptions {
	opts := &sessionOptions{
		logger: logging.ComponentLogger("session"),
		backoff: retry.Config{
			InitialDelay: time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			AddJitter:    true,
		},
		connectTimeout: 30 * time.Second,
		quiesce:        250 * time.Millisecond,
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

// PublishOption adjusts one publish call.
type PublishOption func(*publishOptions)

type publishOptions struct {
	qos      byte
	retained bool
}

// WithQoS sets the MQTT quality of service. Visualization goes out at QoS 0;
// everything else keeps the QoS 1 default.
func WithQoS(qos byte) PublishOption {
	return func(o *publishOptions) {
		o.qos = qos
	}
}

// WithRetained marks the message retained, so the broker replays it to late
// subscribers. Connection and factsheet messages use this.
func WithRetained(retained bool) PublishOption {
	return func(o *publishOptions) {
		o.retained = retained
	}
}

func applyPublishOptions(options ...PublishOption) publishOptions {
	opts := publishOptions{qos: transport.QoSAtLeastOnce}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}
