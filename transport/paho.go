package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Paho is the production Transport, backed by eclipse/paho.mqtt.golang.
// The library's auto reconnect stays disabled: the session owns reconnection,
// so subscription replay and state transitions happen in one place.
type Paho struct {
	opts   Options
	logger *slog.Logger

	mu        sync.RWMutex
	client    mqtt.Client
	router    Router
	onConnect func()
	onLost    func(error)
}

// NewPaho returns an unconnected transport for the given broker options.
func NewPaho(opts Options, logger *slog.Logger) *Paho {
	if logger == nil {
		logger = slog.Default()
	}
	return &Paho{opts: opts, logger: logger}
}

// SetRouter implements Transport.
func (p *Paho) SetRouter(fn Router) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.router = fn
}

// SetConnectionHandlers implements Transport.
func (p *Paho) SetConnectionHandlers(onConnect func(), onLost func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onConnect = onConnect
	p.onLost = onLost
}

// Connect implements Transport. Every call builds a fresh MQTT client, so a
// reconnecting session never inherits half-torn state from the previous
// attempt.
func (p *Paho) Connect(ctx context.Context) error {
	co := mqtt.NewClientOptions().
		AddBroker(p.opts.URL).
		SetClientID(p.opts.ClientID).
		SetCleanSession(!p.opts.PersistentSession).
		SetAutoReconnect(false)

	if p.opts.Username != "" {
		co.SetUsername(p.opts.Username)
		co.SetPassword(p.opts.Password)
	}
	if p.opts.KeepAlive > 0 {
		co.SetKeepAlive(p.opts.KeepAlive)
	}
	if p.opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(p.opts.ConnectTimeout)
	}
	if p.opts.TLS != nil {
		co.SetTLSConfig(p.opts.TLS)
	}
	if w := p.opts.Will; w != nil {
		co.SetBinaryWill(w.Topic, w.Payload, w.QoS, w.Retained)
	}

	co.SetOnConnectHandler(func(mqtt.Client) {
		p.mu.RLock()
		fn := p.onConnect
		p.mu.RUnlock()
		if fn != nil {
			fn()
		}
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.logger.Warn("broker connection lost", "broker", p.opts.URL, "error", err)
		p.mu.RLock()
		fn := p.onLost
		p.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	})

	client := mqtt.NewClient(co)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return errors.WrapTransient(err, "Paho", "Connect", "connect to "+p.opts.URL)
	}

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	p.logger.Debug("connected to broker", "broker", p.opts.URL, "clientId", p.opts.ClientID)
	return nil
}

// Disconnect implements Transport. The quiesce window lets in-flight QoS 1
// flows finish before the network connection drops.
func (p *Paho) Disconnect(quiesce time.Duration) {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client == nil {
		return
	}
	client.Disconnect(uint(quiesce.Milliseconds()))
}

// Publish implements Transport.
func (p *Paho) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	client := p.current()
	if client == nil || !client.IsConnected() {
		return errors.ErrNotConnected
	}
	if err := waitToken(ctx, client.Publish(topic, qos, retained, payload)); err != nil {
		return fmt.Errorf("topic %s: %v: %w", topic, err, errors.ErrPublishFailed)
	}
	return nil
}

// Subscribe implements Transport. Deliveries for every subscription funnel
// into the single router.
func (p *Paho) Subscribe(ctx context.Context, filter string, qos byte) error {
	client := p.current()
	if client == nil || !client.IsConnected() {
		return errors.ErrNotConnected
	}

	handler := func(_ mqtt.Client, m mqtt.Message) {
		p.mu.RLock()
		fn := p.router
		p.mu.RUnlock()
		if fn == nil {
			p.logger.Debug("dropping inbound message, no router", "topic", m.Topic())
			return
		}
		fn(m.Topic(), m.Payload())
	}

	if err := waitToken(ctx, client.Subscribe(filter, qos, handler)); err != nil {
		return fmt.Errorf("filter %s: %v: %w", filter, err, errors.ErrSubscribeFailed)
	}
	return nil
}

// Unsubscribe implements Transport.
func (p *Paho) Unsubscribe(ctx context.Context, filters ...string) error {
	if len(filters) == 0 {
		return nil
	}
	client := p.current()
	if client == nil || !client.IsConnected() {
		return errors.ErrNotConnected
	}
	if err := waitToken(ctx, client.Unsubscribe(filters...)); err != nil {
		return fmt.Errorf("filters %v: %v: %w", filters, err, errors.ErrSubscribeFailed)
	}
	return nil
}

// IsConnected implements Transport.
func (p *Paho) IsConnected() bool {
	client := p.current()
	return client != nil && client.IsConnected()
}

func (p *Paho) current() mqtt.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// waitToken blocks on a Paho token until it completes or the context ends.
func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
