package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zeki-aitech/vda5050-client/config"
	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
	"github.com/zeki-aitech/vda5050-client/session"
	"github.com/zeki-aitech/vda5050-client/transport"
)

// AGV is the vehicle-side client. It receives orders and instant actions
// addressed to its identity and publishes state, visualization, factsheet,
// and connection messages.
//
// Lifecycle announcements are automatic: a retained ONLINE goes out when
// Connect succeeds and after every reconnect, a retained OFFLINE before a
// graceful Disconnect, and the broker publishes a retained CONNECTIONBROKEN
// through the will when the AGV disappears without one.
type AGV struct {
	*Client

	mu               sync.Mutex
	onOrder          func(context.Context, *message.Order)
	onInstantActions func(context.Context, *message.InstantActions)
	lastFactsheet    *message.Factsheet

	visMu      sync.Mutex
	visLimiter *rate.Limiter
}

// NewAGV builds an AGV client from the configuration. Callbacks register
// before Connect; the subscriptions to this AGV's own order and
// instantActions topics are fixed at construction.
func NewAGV(cfg *config.Config, options ...Option) (*AGV, error) {
	opts := applyOptions("agv", options...)

	core, err := newCore(cfg, opts)
	if err != nil {
		return nil, err
	}
	a := &AGV{Client: core}

	will, err := a.will()
	if err != nil {
		return nil, err
	}
	if err := core.bind(opts, will); err != nil {
		return nil, err
	}

	core.register(message.TypeOrder,
		core.codec.PublishTopic(string(message.TypeOrder)), a.deliverOrder)
	core.register(message.TypeInstantActions,
		core.codec.PublishTopic(string(message.TypeInstantActions)), a.deliverInstantActions)

	core.onConnectAnnounce = a.announceOnline
	core.preDisconnectAnnounce = a.announceOffline

	return a, nil
}

// will builds the retained CONNECTIONBROKEN message the broker publishes on
// this AGV's behalf if the connection dies ungracefully. It is stamped at
// construction; its headerId comes from the same counter as the regular
// connection messages.
func (a *AGV) will() (*transport.Will, error) {
	topicStr := a.codec.PublishTopic(string(message.TypeConnection))

	conn := message.NewConnection(message.ConnectionBroken)
	conn.MessageHeader().Stamp(
		a.nextHeaderID(topicStr),
		a.cfg.Identity.Version,
		a.cfg.Identity.Manufacturer,
		a.cfg.Identity.SerialNumber,
		time.Now(),
	)

	payload, err := message.Encode(conn)
	if err != nil {
		return nil, err
	}
	return &transport.Will{
		Topic:    topicStr,
		Payload:  payload,
		QoS:      transport.QoSAtLeastOnce,
		Retained: true,
	}, nil
}

// OnOrder registers the callback for incoming orders. Must be called before
// Connect.
func (a *AGV) OnOrder(fn func(context.Context, *message.Order)) error {
	if err := a.registrationOpen("OnOrder"); err != nil {
		return err
	}
	a.mu.Lock()
	a.onOrder = fn
	a.mu.Unlock()
	return nil
}

// OnInstantActions registers the callback for incoming instant actions.
// Must be called before Connect.
func (a *AGV) OnInstantActions(fn func(context.Context, *message.InstantActions)) error {
	if err := a.registrationOpen("OnInstantActions"); err != nil {
		return err
	}
	a.mu.Lock()
	a.onInstantActions = fn
	a.mu.Unlock()
	return nil
}

func (a *AGV) registrationOpen(method string) error {
	if a.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "AGV", method, "register callback")
	}
	if a.connected.Load() {
		return errors.WrapInvalid(errors.ErrLateRegistration, "AGV", method, "register callback")
	}
	return nil
}

// PublishState publishes this AGV's state. QoS 1, not retained.
func (a *AGV) PublishState(ctx context.Context, s *message.State) error {
	return a.publishOwn(ctx, s)
}

// PublishVisualization publishes a position/velocity update. QoS 0 and not
// retained: visualization is a lossy high-rate stream. When an interval is
// set with SetVisualizationInterval, calls above the rate are dropped
// silently.
func (a *AGV) PublishVisualization(ctx context.Context, v *message.Visualization) error {
	a.visMu.Lock()
	limiter := a.visLimiter
	a.visMu.Unlock()

	if limiter != nil && !limiter.Allow() {
		a.logger.Debug("visualization publish throttled")
		return nil
	}
	return a.publishOwn(ctx, v, session.WithQoS(transport.QoSAtMostOnce))
}

// SetVisualizationInterval caps how often PublishVisualization actually
// publishes: at most one message per interval, surplus calls dropped. Zero
// or negative removes the cap. Safe to call at any time.
func (a *AGV) SetVisualizationInterval(interval time.Duration) {
	a.visMu.Lock()
	defer a.visMu.Unlock()
	if interval <= 0 {
		a.visLimiter = nil
		return
	}
	a.visLimiter = rate.NewLimiter(rate.Every(interval), 1)
}

// PublishFactsheet publishes the AGV's factsheet, retained so late joiners
// see it. The client keeps a reference and republishes it after every
// reconnect, so the factsheet should not be mutated afterwards.
func (a *AGV) PublishFactsheet(ctx context.Context, f *message.Factsheet) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.publishOwn(ctx, f, session.WithRetained(true)); err != nil {
		return err
	}
	a.lastFactsheet = f
	return nil
}

// announceOnline publishes the retained ONLINE connection message, then
// replays the factsheet if one was published before. Runs on Connect and
// after every automatic reconnect.
func (a *AGV) announceOnline(ctx context.Context) error {
	if err := a.announceConnection(ctx, message.ConnectionOnline); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastFactsheet != nil {
		if err := a.publishOwn(ctx, a.lastFactsheet, session.WithRetained(true)); err != nil {
			return err
		}
	}
	return nil
}

// announceOffline publishes the retained OFFLINE connection message before a
// graceful disconnect.
func (a *AGV) announceOffline(ctx context.Context) error {
	return a.announceConnection(ctx, message.ConnectionOffline)
}

func (a *AGV) announceConnection(ctx context.Context, state message.ConnectionState) error {
	conn := message.NewConnection(state)
	if err := a.publishOwn(ctx, conn, session.WithRetained(true)); err != nil {
		return err
	}
	a.logger.Info("announced connection state", "state", state)
	return nil
}

func (a *AGV) deliverOrder(_ string, m message.Message) {
	order, ok := m.(*message.Order)
	if !ok {
		return
	}
	a.mu.Lock()
	fn := a.onOrder
	a.mu.Unlock()

	if fn == nil {
		a.logger.Debug("order received with no callback registered", "orderId", order.OrderID)
		return
	}
	fn(a.ctx, order)
}

func (a *AGV) deliverInstantActions(_ string, m message.Message) {
	actions, ok := m.(*message.InstantActions)
	if !ok {
		return
	}
	a.mu.Lock()
	fn := a.onInstantActions
	a.mu.Unlock()

	if fn == nil {
		a.logger.Debug("instant actions received with no callback registered")
		return
	}
	fn(a.ctx, actions)
}
