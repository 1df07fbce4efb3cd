package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/zeki-aitech/vda5050-client/client"
	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
)

// monitor aggregates what the master hears from the fleet: the connection
// map lives in the client, the latest state summary per AGV lives here.
type monitor struct {
	mc     *client.MasterControl
	logger *slog.Logger

	mu     sync.Mutex
	states map[client.AGVID]stateSummary
}

type stateSummary struct {
	OrderID    string
	LastNodeID string
	Battery    float64
	Driving    bool
	Errors     int
	SeenAt     time.Time
}

func newMonitor(mc *client.MasterControl, logger *slog.Logger) *monitor {
	return &monitor{
		mc:     mc,
		logger: logger,
		states: make(map[client.AGVID]stateSummary),
	}
}

// register wires the monitor's callbacks. Must run before Connect.
func (m *monitor) register() error {
	if err := m.mc.OnConnection(m.handleConnection); err != nil {
		return err
	}
	if err := m.mc.OnState(m.handleState); err != nil {
		return err
	}
	if err := m.mc.OnVisualization(m.handleVisualization); err != nil {
		return err
	}
	return m.mc.OnFactsheet(m.handleFactsheet)
}

func (m *monitor) handleConnection(manufacturer, serialNumber string, c *message.Connection) {
	m.logger.Info("fleet connection change",
		"manufacturer", manufacturer,
		"serialNumber", serialNumber,
		"state", c.ConnectionState)
}

func (m *monitor) handleState(manufacturer, serialNumber string, s *message.State) {
	summary := stateSummary{
		OrderID:    s.OrderID,
		LastNodeID: s.LastNodeID,
		Battery:    s.BatteryState.BatteryCharge,
		Driving:    s.Driving,
		Errors:     len(s.Errors),
		SeenAt:     time.Now(),
	}
	m.mu.Lock()
	m.states[client.AGVID{Manufacturer: manufacturer, SerialNumber: serialNumber}] = summary
	m.mu.Unlock()

	m.logger.Debug("state received",
		"manufacturer", manufacturer,
		"serialNumber", serialNumber,
		"orderId", s.OrderID,
		"lastNodeId", s.LastNodeID,
		"driving", s.Driving)

	if s.HasFatalError() {
		m.logger.Error("vehicle reports fatal error",
			"manufacturer", manufacturer,
			"serialNumber", serialNumber,
			"errors", len(s.Errors))
	}
}

func (m *monitor) handleVisualization(manufacturer, serialNumber string, v *message.Visualization) {
	if v.AGVPosition == nil {
		return
	}
	m.logger.Debug("position update",
		"manufacturer", manufacturer,
		"serialNumber", serialNumber,
		"x", v.AGVPosition.X,
		"y", v.AGVPosition.Y)
}

func (m *monitor) handleFactsheet(manufacturer, serialNumber string, f *message.Factsheet) {
	m.logger.Info("factsheet received",
		"manufacturer", manufacturer,
		"serialNumber", serialNumber,
		"series", f.TypeSpecification.SeriesName,
		"class", f.TypeSpecification.AGVClass)
}

// printFleet writes the connection table for every AGV seen so far.
func (m *monitor) printFleet(w io.Writer) {
	fleet := m.mc.Fleet()
	if len(fleet) == 0 {
		_, _ = fmt.Fprintln(w, "fleet: no vehicles seen yet")
		return
	}

	ids := make([]client.AGVID, 0, len(fleet))
	for id := range fleet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Manufacturer != ids[j].Manufacturer {
			return ids[i].Manufacturer < ids[j].Manufacturer
		}
		return ids[i].SerialNumber < ids[j].SerialNumber
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MANUFACTURER\tSERIAL\tCONNECTION\tORDER\tLAST NODE\tBATTERY\tDRIVING\tERRORS\tLAST STATE")
	for _, id := range ids {
		s, ok := m.states[id]
		if !ok {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\t-\t-\n", id.Manufacturer, id.SerialNumber, fleet[id])
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f%%\t%t\t%d\t%s ago\n",
			id.Manufacturer, id.SerialNumber, fleet[id],
			orDash(s.OrderID), orDash(s.LastNodeID), s.Battery, s.Driving, s.Errors,
			time.Since(s.SeenAt).Round(time.Second))
	}
	_ = tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// dispatchDemoOrder sends a short tour to the target AGV when it is online.
// Every dispatch is a fresh order with a fresh orderId.
func (m *monitor) dispatchDemoOrder(ctx context.Context, manufacturer, serialNumber string) {
	target := client.AGVID{Manufacturer: manufacturer, SerialNumber: serialNumber}
	if state := m.mc.Fleet()[target]; state != message.ConnectionOnline {
		m.logger.Debug("demo order skipped, target not online",
			"manufacturer", manufacturer,
			"serialNumber", serialNumber,
			"state", state)
		return
	}

	order := demoOrder()
	err := m.mc.SendOrder(ctx, manufacturer, serialNumber, order)
	if err != nil {
		if errors.IsTransient(err) {
			m.logger.Debug("demo order not sent", "error", err)
		} else {
			m.logger.Warn("demo order failed", "orderId", order.OrderID, "error", err)
		}
		return
	}
	m.logger.Info("demo order sent",
		"orderId", order.OrderID,
		"manufacturer", manufacturer,
		"serialNumber", serialNumber,
		"nodes", len(order.Nodes))
}

// demoOrder builds a three-node tour across the warehouse map.
func demoOrder() *message.Order {
	node := func(id string, seq int, x, y float64) message.Node {
		return message.Node{
			NodeID:     id,
			SequenceID: seq,
			Released:   true,
			NodePosition: &message.NodePosition{
				X:     x,
				Y:     y,
				MapID: "warehouse",
			},
			Actions: []message.Action{},
		}
	}
	edge := func(id string, seq int, from, to string) message.Edge {
		return message.Edge{
			EdgeID:      id,
			SequenceID:  seq,
			Released:    true,
			StartNodeID: from,
			EndNodeID:   to,
			Actions:     []message.Action{},
		}
	}

	return &message.Order{
		OrderID:       "demo-" + uuid.NewString()[:8],
		OrderUpdateID: 0,
		Nodes: []message.Node{
			node("pickup", 0, 0, 0),
			node("aisle-3", 2, 6, 0),
			node("dropoff", 4, 6, 4),
		},
		Edges: []message.Edge{
			edge("e-pickup-aisle", 1, "pickup", "aisle-3"),
			edge("e-aisle-dropoff", 3, "aisle-3", "dropoff"),
		},
	}
}
