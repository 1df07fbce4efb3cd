package client

import (
	"context"
	"sync"

	"github.com/zeki-aitech/vda5050-client/config"
	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
	"github.com/zeki-aitech/vda5050-client/topic"
)

// AGVID identifies one AGV on the interface.
type AGVID struct {
	Manufacturer string
	SerialNumber string
}

// MasterControl is the fleet-side client. It watches every AGV on the
// interface through wildcard subscriptions to state, connection,
// visualization, and factsheet, and sends orders and instant actions to
// individual AGVs.
//
// A master publishes no connection messages of its own; VDA5050 announces
// only vehicles.
type MasterControl struct {
	*Client

	mu              sync.Mutex
	onState         func(manufacturer, serialNumber string, s *message.State)
	onConnection    func(manufacturer, serialNumber string, c *message.Connection)
	onVisualization func(manufacturer, serialNumber string, v *message.Visualization)
	onFactsheet     func(manufacturer, serialNumber string, f *message.Factsheet)

	fleetMu sync.RWMutex
	fleet   map[AGVID]message.ConnectionState
}

// NewMasterControl builds a master-control client from the configuration.
// The identity's manufacturer and serial number name the master itself; the
// subscriptions cover every AGV on the configured interface and version.
func NewMasterControl(cfg *config.Config, options ...Option) (*MasterControl, error) {
	opts := applyOptions("master-control", options...)

	core, err := newCore(cfg, opts)
	if err != nil {
		return nil, err
	}
	mc := &MasterControl{
		Client: core,
		fleet:  make(map[AGVID]message.ConnectionState),
	}

	if err := core.bind(opts, nil); err != nil {
		return nil, err
	}

	subscribe := func(t message.Type, deliver func(string, message.Message)) {
		core.register(t, core.codec.SubscriptionTopic(string(t), "", ""), deliver)
	}
	subscribe(message.TypeState, mc.deliverState)
	subscribe(message.TypeConnection, mc.deliverConnection)
	subscribe(message.TypeVisualization, mc.deliverVisualization)
	subscribe(message.TypeFactsheet, mc.deliverFactsheet)

	return mc, nil
}

// OnState registers the callback for AGV state updates. Must be called
// before Connect.
func (mc *MasterControl) OnState(fn func(manufacturer, serialNumber string, s *message.State)) error {
	if err := mc.registrationOpen("OnState"); err != nil {
		return err
	}
	mc.mu.Lock()
	mc.onState = fn
	mc.mu.Unlock()
	return nil
}

// OnConnection registers the callback for AGV connection changes. The fleet
// cache updates before the callback runs. Must be called before Connect.
func (mc *MasterControl) OnConnection(fn func(manufacturer, serialNumber string, c *message.Connection)) error {
	if err := mc.registrationOpen("OnConnection"); err != nil {
		return err
	}
	mc.mu.Lock()
	mc.onConnection = fn
	mc.mu.Unlock()
	return nil
}

// OnVisualization registers the callback for AGV position updates. Must be
// called before Connect.
func (mc *MasterControl) OnVisualization(fn func(manufacturer, serialNumber string, v *message.Visualization)) error {
	if err := mc.registrationOpen("OnVisualization"); err != nil {
		return err
	}
	mc.mu.Lock()
	mc.onVisualization = fn
	mc.mu.Unlock()
	return nil
}

// OnFactsheet registers the callback for AGV factsheets. Must be called
// before Connect.
func (mc *MasterControl) OnFactsheet(fn func(manufacturer, serialNumber string, f *message.Factsheet)) error {
	if err := mc.registrationOpen("OnFactsheet"); err != nil {
		return err
	}
	mc.mu.Lock()
	mc.onFactsheet = fn
	mc.mu.Unlock()
	return nil
}

func (mc *MasterControl) registrationOpen(method string) error {
	if mc.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "MasterControl", method, "register callback")
	}
	if mc.connected.Load() {
		return errors.WrapInvalid(errors.ErrLateRegistration, "MasterControl", method, "register callback")
	}
	return nil
}

// SendOrder sends an order to one AGV. The envelope is stamped with the
// target's identity, per protocol. QoS 1, not retained.
func (mc *MasterControl) SendOrder(ctx context.Context, manufacturer, serialNumber string, order *message.Order) error {
	return mc.publishTo(ctx, manufacturer, serialNumber, order)
}

// SendInstantActions sends instant actions to one AGV. QoS 1, not retained.
func (mc *MasterControl) SendInstantActions(ctx context.Context, manufacturer, serialNumber string, actions *message.InstantActions) error {
	return mc.publishTo(ctx, manufacturer, serialNumber, actions)
}

// Fleet returns a snapshot of the last known connection state of every AGV
// seen on the interface. Retained connection messages fill it right after
// Connect, so even silent vehicles appear.
func (mc *MasterControl) Fleet() map[AGVID]message.ConnectionState {
	mc.fleetMu.RLock()
	defer mc.fleetMu.RUnlock()

	out := make(map[AGVID]message.ConnectionState, len(mc.fleet))
	for id, state := range mc.fleet {
		out[id] = state
	}
	return out
}

func (mc *MasterControl) deliverState(topicStr string, m message.Message) {
	state, ok := m.(*message.State)
	if !ok {
		return
	}
	addr, err := mc.parse(topicStr)
	if err != nil {
		return
	}
	mc.mu.Lock()
	fn := mc.onState
	mc.mu.Unlock()
	if fn != nil {
		fn(addr.Manufacturer, addr.SerialNumber, state)
	}
}

func (mc *MasterControl) deliverConnection(topicStr string, m message.Message) {
	conn, ok := m.(*message.Connection)
	if !ok {
		return
	}
	addr, err := mc.parse(topicStr)
	if err != nil {
		return
	}

	mc.fleetMu.Lock()
	mc.fleet[AGVID{addr.Manufacturer, addr.SerialNumber}] = conn.ConnectionState
	mc.fleetMu.Unlock()

	mc.mu.Lock()
	fn := mc.onConnection
	mc.mu.Unlock()
	if fn != nil {
		fn(addr.Manufacturer, addr.SerialNumber, conn)
	}
}

func (mc *MasterControl) deliverVisualization(topicStr string, m message.Message) {
	vis, ok := m.(*message.Visualization)
	if !ok {
		return
	}
	addr, err := mc.parse(topicStr)
	if err != nil {
		return
	}
	mc.mu.Lock()
	fn := mc.onVisualization
	mc.mu.Unlock()
	if fn != nil {
		fn(addr.Manufacturer, addr.SerialNumber, vis)
	}
}

func (mc *MasterControl) deliverFactsheet(topicStr string, m message.Message) {
	fs, ok := m.(*message.Factsheet)
	if !ok {
		return
	}
	addr, err := mc.parse(topicStr)
	if err != nil {
		return
	}
	mc.mu.Lock()
	fn := mc.onFactsheet
	mc.mu.Unlock()
	if fn != nil {
		fn(addr.Manufacturer, addr.SerialNumber, fs)
	}
}

func (mc *MasterControl) parse(topicStr string) (topic.Address, error) {
	addr, err := topic.Parse(topicStr)
	if err != nil {
		mc.logger.Warn("inbound message on unparseable topic", "topic", topicStr, "error", err)
	}
	return addr, err
}
