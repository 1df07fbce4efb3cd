package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeki-aitech/vda5050-client/config"
	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
	"github.com/zeki-aitech/vda5050-client/metric"
	"github.com/zeki-aitech/vda5050-client/pkg/retry"
	"github.com/zeki-aitech/vda5050-client/session"
	"github.com/zeki-aitech/vda5050-client/topic"
	"github.com/zeki-aitech/vda5050-client/transport"
	"github.com/zeki-aitech/vda5050-client/validation"
)

// announceTimeout bounds the protocol announcements a client makes around
// connection changes: ONLINE on connect, OFFLINE before disconnect, and the
// replay after a reconnect.
const announceTimeout = 5 * time.Second

// registration is one message subscription a role client declared. The list
// is materialized into session handlers when Connect runs.
type registration struct {
	messageType message.Type
	filter      string
	deliver     func(topic string, m message.Message)
}

// Client is the protocol core shared by the AGV and MasterControl roles:
// identity, topic codec, envelope stamping, schema validation, and the
// connect/disconnect lifecycle. Role clients embed it and add their message
// surfaces on top.
type Client struct {
	cfg       *config.Config
	codec     *topic.Codec
	sess      *session.Session
	validator *validation.Validator
	logger    *slog.Logger
	metrics   *metric.ClientMetrics

	// ctx is handed to role callbacks; it cancels when the client closes.
	ctx    context.Context
	cancel context.CancelFunc

	connectMu sync.Mutex
	connected atomic.Bool
	closed    atomic.Bool

	headerMu  sync.Mutex
	headerIDs map[string]uint32

	registrations []registration

	// Capability hooks the role clients install before Connect.
	onConnectAnnounce     func(context.Context) error
	preDisconnectAnnounce func(context.Context) error
}

// newCore validates the configuration and builds everything that does not
// depend on the transport: codec, validator, header counters. The role
// constructor calls bind once it knows its will message.
func newCore(cfg *config.Config, opts *options) (*Client, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "New", "nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := topic.NewCodec(
		cfg.Identity.InterfaceName,
		cfg.Identity.Version,
		cfg.Identity.Manufacturer,
		cfg.Identity.SerialNumber,
	)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       cfg,
		codec:     codec,
		logger:    opts.logger.With("serial", cfg.Identity.SerialNumber),
		metrics:   opts.metrics,
		headerIDs: make(map[string]uint32),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	enabled := cfg.Validation.Enabled
	if opts.validation != nil {
		enabled = *opts.validation
	}
	if enabled {
		v, err := validation.New()
		if err != nil {
			return nil, err
		}
		c.validator = v
	}

	return c, nil
}

// bind creates the transport and session. will may be nil; AGVs pass their
// retained CONNECTIONBROKEN message so the broker announces an ungraceful
// death on their behalf.
func (c *Client) bind(opts *options, will *transport.Will) error {
	tlsCfg, err := c.cfg.Broker.TLS.ClientConfig()
	if err != nil {
		return err
	}

	topts := transport.Options{
		URL:               c.cfg.Broker.URL,
		ClientID:          c.clientID(),
		Username:          c.cfg.Broker.Username,
		Password:          c.cfg.Broker.Password,
		KeepAlive:         c.cfg.Broker.KeepAlive.Std(),
		ConnectTimeout:    c.cfg.Connection.ConnectTimeout.Std(),
		TLS:               tlsCfg,
		PersistentSession: !c.cfg.Broker.CleanSession,
		Will:              will,
	}

	sessOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithMetrics(c.metrics),
		session.WithConnectTimeout(c.cfg.Connection.ConnectTimeout.Std()),
	}
	if d := c.cfg.Connection.ReconnectInitialDelay.Std(); d > 0 {
		sessOpts = append(sessOpts, session.WithBackoff(retry.Config{
			InitialDelay: d,
			MaxDelay:     c.cfg.Connection.ReconnectMaxDelay.Std(),
			Multiplier:   2.0,
			AddJitter:    true,
		}))
	}

	sess, err := session.New(opts.factory(topts), sessOpts...)
	if err != nil {
		return err
	}
	c.sess = sess

	// After an automatic reconnect the broker has fresh subscriptions but no
	// fresh announcements; replay them.
	sess.OnReconnect(func() {
		if c.onConnectAnnounce == nil {
			return
		}
		ctx, cancel := context.WithTimeout(c.ctx, announceTimeout)
		defer cancel()
		if err := c.onConnectAnnounce(ctx); err != nil {
			c.logger.Warn("announcement replay after reconnect failed", "error", err)
		}
	})

	return nil
}

// clientID returns the configured MQTT client ID, or derives a unique one
// from the identity. Shared IDs make brokers disconnect the older client, so
// the derived form carries a random suffix.
func (c *Client) clientID() string {
	if c.cfg.Broker.ClientID != "" {
		return c.cfg.Broker.ClientID
	}
	return fmt.Sprintf("%s-%s-%s",
		c.cfg.Identity.InterfaceName, c.cfg.Identity.SerialNumber, uuid.NewString()[:8])
}

// register declares a subscription for one message type. Role constructors
// call it before the client is handed to the user, so the list is complete
// when Connect materializes it.
func (c *Client) register(t message.Type, filter string, deliver func(string, message.Message)) {
	c.registrations = append(c.registrations, registration{
		messageType: t,
		filter:      filter,
		deliver:     deliver,
	})
}

// Connect establishes the broker connection: it materializes the declared
// subscriptions into session handlers, connects the session, and runs the
// role's connect announcement. Any step failing rolls the client back to its
// pre-call state. Idempotent; a concurrent call waits for the first.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "Client", "Connect", "client closed")
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.connected.Load() {
		return nil
	}
	if c.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "Client", "Connect", "client closed")
	}

	added := make([]string, 0, len(c.registrations))
	for _, reg := range c.registrations {
		reg := reg
		err := c.sess.Handle(reg.filter, func(topicStr string, payload []byte) {
			c.inbound(reg, topicStr, payload)
		})
		if err != nil {
			_ = c.sess.Unhandle(added...)
			return err
		}
		added = append(added, reg.filter)
	}

	if err := c.sess.Connect(ctx); err != nil {
		_ = c.sess.Unhandle(added...)
		return err
	}

	if c.onConnectAnnounce != nil {
		actx, cancel := context.WithTimeout(ctx, announceTimeout)
		err := c.onConnectAnnounce(actx)
		cancel()
		if err != nil {
			_ = c.sess.Disconnect()
			_ = c.sess.Unhandle(added...)
			return err
		}
	}

	c.connected.Store(true)
	c.logger.Info("client connected", "broker", c.cfg.Broker.URL)
	return nil
}

// Disconnect leaves the protocol gracefully: the role's farewell
// announcement goes out on a best-effort basis, then the session closes. A
// disconnected client is finished; build a new one to reconnect. Idempotent.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.connected.Load() && c.preDisconnectAnnounce != nil {
		actx, cancel := context.WithTimeout(ctx, announceTimeout)
		if err := c.preDisconnectAnnounce(actx); err != nil {
			c.logger.Warn("farewell announcement failed", "error", err)
		}
		cancel()
	}

	c.cancel()
	c.connected.Store(false)

	if err := c.sess.Close(); err != nil {
		return err
	}
	c.logger.Info("client disconnected")
	return nil
}

// Connected reports whether the client completed Connect and has not been
// disconnected. It stays true while the session is reconnecting; Status
// shows the live link state.
func (c *Client) Connected() bool {
	return c.connected.Load() && !c.closed.Load()
}

// Status returns the live broker link state.
func (c *Client) Status() session.Status {
	return c.sess.Status()
}

// Identity returns the VDA5050 identity the client was built with.
func (c *Client) Identity() config.Identity {
	return c.cfg.Identity
}

// inbound runs the receive pipeline for one message: schema validation when
// enabled, typed decode, then the role callback. Failures drop the message
// with a log line and a counter; the callback never sees a bad payload.
func (c *Client) inbound(reg registration, topicStr string, payload []byte) {
	t := reg.messageType

	if c.validator != nil {
		if err := c.validator.Validate(t, payload); err != nil {
			c.metrics.RecordValidationFailure(string(t), "inbound")
			c.logger.Warn("dropping inbound message failing schema validation",
				"type", t, "topic", topicStr, "error", err)
			return
		}
	}

	m, err := message.Decode(t, payload)
	if err != nil {
		c.metrics.RecordDropped("decode_failed")
		c.logger.Warn("dropping undecodable inbound message",
			"type", t, "topic", topicStr, "error", err)
		return
	}

	c.metrics.RecordReceived(string(t))
	reg.deliver(topicStr, m)
}

// publishOwn sends a message on this client's own topic for its type.
func (c *Client) publishOwn(ctx context.Context, m message.Message, popts ...session.PublishOption) error {
	t := c.codec.PublishTopic(string(m.MessageType()))
	return c.publish(ctx, t, c.cfg.Identity.Manufacturer, c.cfg.Identity.SerialNumber, m, popts...)
}

// publishTo sends a message to another device's topic. Per protocol the
// header carries the target AGV's identity, not the sender's.
func (c *Client) publishTo(ctx context.Context, manufacturer, serialNumber string, m message.Message, popts ...session.PublishOption) error {
	t := c.codec.TargetTopic(manufacturer, serialNumber, string(m.MessageType()))
	if err := topic.ValidateTopic(t); err != nil {
		return err
	}
	return c.publish(ctx, t, manufacturer, serialNumber, m, popts...)
}

// publish stamps the envelope, validates when enabled, and hands the payload
// to the session. The headerId counter is per concrete topic.
func (c *Client) publish(ctx context.Context, topicStr, manufacturer, serialNumber string, m message.Message, popts ...session.PublishOption) error {
	t := m.MessageType()

	m.MessageHeader().Stamp(
		c.nextHeaderID(topicStr),
		c.cfg.Identity.Version,
		manufacturer,
		serialNumber,
		time.Now(),
	)

	payload, err := message.Encode(m)
	if err != nil {
		return err
	}

	if c.validator != nil {
		if err := c.validator.Validate(t, payload); err != nil {
			c.metrics.RecordValidationFailure(string(t), "outbound")
			return err
		}
	}

	if err := c.sess.Publish(ctx, topicStr, payload, popts...); err != nil {
		return err
	}

	c.metrics.RecordPublished(string(t))
	c.logger.Debug("published message", "type", t, "topic", topicStr)
	return nil
}

// nextHeaderID allocates the next headerId for a topic. Counters start at
// zero and survive reconnects, but not process restarts.
func (c *Client) nextHeaderID(topicStr string) uint32 {
	c.headerMu.Lock()
	defer c.headerMu.Unlock()
	id := c.headerIDs[topicStr]
	c.headerIDs[topicStr] = id + 1
	return id
}
