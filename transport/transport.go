// Package transport provides the MQTT connection layer beneath the session.
package transport

import (
	"context"
	"crypto/tls"
	"time"
)

// MQTT quality-of-service levels the protocol uses. Visualization travels at
// most once; every other message type at least once.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
)

// Router receives every inbound message a transport delivers. A transport has
// exactly one router; topic dispatch happens above, in the session.
type Router func(topic string, payload []byte)

// Will is the message the broker publishes on behalf of a client that
// disappears without a graceful disconnect.
type Will struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// Options configures a broker connection.
type Options struct {
	// URL is the broker address, e.g. "tcp://localhost:1883" or
	// "ssl://broker.example.com:8883".
	URL string
	// ClientID identifies this client to the broker. Brokers disconnect the
	// older of two clients sharing an ID, so keep it unique.
	ClientID string
	Username string
	Password string
	// KeepAlive is the MQTT keep-alive interval. Zero keeps the library default.
	KeepAlive time.Duration
	// ConnectTimeout bounds a single connect attempt. Zero keeps the library
	// default.
	ConnectTimeout time.Duration
	// TLS enables an encrypted connection when non-nil.
	TLS *tls.Config
	// PersistentSession asks the broker to keep subscription state across
	// connections. The zero value requests a clean session, which is what the
	// session layer's resubscribe-on-reconnect logic expects.
	PersistentSession bool
	// Will is registered with the broker at connect time when non-nil.
	Will *Will
}

// Transport is the narrow MQTT surface the session depends on. Reconnect
// policy lives a level up: implementations report a lost connection through
// the onLost handler and wait to be told to connect again.
//
// SetRouter and SetConnectionHandlers must be called before Connect.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect(quiesce time.Duration)
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
	Subscribe(ctx context.Context, filter string, qos byte) error
	Unsubscribe(ctx context.Context, filters ...string) error
	SetRouter(fn Router)
	SetConnectionHandlers(onConnect func(), onLost func(error))
	IsConnected() bool
}
