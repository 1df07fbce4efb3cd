package transport

import (
	"context"
	"sync"
	"time"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/topic"
)

// Broker is an in-process message broker with MQTT retain and wildcard
// semantics. Tests and offline demos attach Memory transports to one Broker
// and exchange messages without a network.
type Broker struct {
	mu       sync.RWMutex
	clients  map[*Memory]struct{}
	retained map[string][]byte
}

// NewBroker returns an empty in-process broker.
func NewBroker() *Broker {
	return &Broker{
		clients:  make(map[*Memory]struct{}),
		retained: make(map[string][]byte),
	}
}

// Client returns a new, unconnected Memory transport attached to the broker.
func (b *Broker) Client(opts Options) *Memory {
	return &Memory{broker: b, opts: opts, subs: make(map[string]byte)}
}

// Retained returns the retained payload stored for a topic, if any.
func (b *Broker) Retained(t string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.retained[t]
	return p, ok
}

// Drop severs a client as if its network path died: no graceful disconnect,
// the will fires, and the client's connection-lost handler runs.
func (b *Broker) Drop(m *Memory) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return
	}
	m.connected = false
	onLost := m.onLost
	will := m.opts.Will
	m.mu.Unlock()

	b.detach(m)

	if will != nil {
		b.publish(will.Topic, will.Payload, will.Retained)
	}
	if onLost != nil {
		onLost(errors.ErrConnectionLost)
	}
}

func (b *Broker) attach(m *Memory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[m] = struct{}{}
}

func (b *Broker) detach(m *Memory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, m)
}

// publish stores the retained payload when asked and routes the message to
// every matching subscriber, the publisher included. An empty retained
// payload clears the stored message, per MQTT retain rules. Delivery happens
// outside the broker lock so handlers may publish in turn.
func (b *Broker) publish(t string, payload []byte, retained bool) {
	b.mu.Lock()
	if retained {
		if len(payload) == 0 {
			delete(b.retained, t)
		} else {
			stored := make([]byte, len(payload))
			copy(stored, payload)
			b.retained[t] = stored
		}
	}
	targets := make([]*Memory, 0, len(b.clients))
	for c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	for _, c := range targets {
		c.deliver(t, payload)
	}
}

// matchingRetained snapshots retained messages matching a filter.
func (b *Broker) matchingRetained(filter string) map[string][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]byte)
	for t, p := range b.retained {
		if topic.Match(filter, t) {
			out[t] = p
		}
	}
	return out
}

// Memory is a Transport attached to an in-process Broker. It mirrors broker
// behavior closely enough for the session and clients to run unchanged:
// retained messages reach late subscribers, wildcard filters match per MQTT
// rules, and a dropped connection fires the will.
//
// QoS values are recorded but make no delivery difference in-process.
type Memory struct {
	broker *Broker
	opts   Options

	mu        sync.RWMutex
	connected bool
	subs      map[string]byte
	router    Router
	onConnect func()
	onLost    func(error)
}

var _ Transport = (*Memory)(nil)

// SetRouter implements Transport.
func (m *Memory) SetRouter(fn Router) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.router = fn
}

// SetConnectionHandlers implements Transport.
func (m *Memory) SetConnectionHandlers(onConnect func(), onLost func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = onConnect
	m.onLost = onLost
}

// Connect implements Transport.
func (m *Memory) Connect(_ context.Context) error {
	m.mu.Lock()
	if m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = true
	onConnect := m.onConnect
	m.mu.Unlock()

	m.broker.attach(m)
	if onConnect != nil {
		onConnect()
	}
	return nil
}

// Disconnect implements Transport. Graceful: the will does not fire.
func (m *Memory) Disconnect(_ time.Duration) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return
	}
	m.connected = false
	m.mu.Unlock()

	m.broker.detach(m)
}

// Publish implements Transport.
func (m *Memory) Publish(_ context.Context, t string, _ byte, retained bool, payload []byte) error {
	if !m.IsConnected() {
		return errors.ErrNotConnected
	}
	if err := topic.ValidateTopic(t); err != nil {
		return err
	}
	m.broker.publish(t, payload, retained)
	return nil
}

// Subscribe implements Transport. Matching retained messages are delivered
// immediately, like a real broker does for a new subscription.
func (m *Memory) Subscribe(_ context.Context, filter string, qos byte) error {
	if !m.IsConnected() {
		return errors.ErrNotConnected
	}
	if err := topic.ValidateFilter(filter); err != nil {
		return err
	}

	m.mu.Lock()
	m.subs[filter] = qos
	m.mu.Unlock()

	for t, payload := range m.broker.matchingRetained(filter) {
		m.deliver(t, payload)
	}
	return nil
}

// Unsubscribe implements Transport.
func (m *Memory) Unsubscribe(_ context.Context, filters ...string) error {
	if !m.IsConnected() {
		return errors.ErrNotConnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range filters {
		delete(m.subs, f)
	}
	return nil
}

// IsConnected implements Transport.
func (m *Memory) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// deliver routes a message through the client's router when any of its
// filters match.
func (m *Memory) deliver(t string, payload []byte) {
	m.mu.RLock()
	router := m.router
	matched := false
	if m.connected {
		for f := range m.subs {
			if topic.Match(f, t) {
				matched = true
				break
			}
		}
	}
	m.mu.RUnlock()

	if matched && router != nil {
		router(t, payload)
	}
}
