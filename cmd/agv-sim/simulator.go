package main

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/zeki-aitech/vda5050-client/client"
	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
)

// simulator is a minimal kinematic vehicle model behind the AGV client. It
// accepts orders, drives the released part of the node graph at constant
// speed and reports progress through the client's state and visualization
// publishes. It exists to exercise the protocol end to end, not to model a
// real vehicle.
type simulator struct {
	agv    *client.AGV
	logger *slog.Logger
	speed  float64

	mu        sync.Mutex
	x, y      float64
	theta     float64
	mapID     string
	battery   float64
	paused    bool
	factsheet *message.Factsheet

	orderID       string
	orderUpdateID int
	lastNodeID    string
	lastNodeSeq   int
	nodes         []message.Node
	edges         []message.Edge
	actionStates  []message.ActionState
}

func newSimulator(agv *client.AGV, factsheet *message.Factsheet, speed float64, logger *slog.Logger) *simulator {
	return &simulator{
		agv:       agv,
		logger:    logger,
		speed:     speed,
		mapID:     "warehouse",
		battery:   100.0,
		factsheet: factsheet,
	}
}

// acceptOrder replaces the current driving target with the released part of
// the incoming order. Stale updates (same orderId, no newer orderUpdateId)
// are dropped.
func (s *simulator) acceptOrder(ctx context.Context, order *message.Order) {
	s.mu.Lock()
	if order.OrderID == s.orderID && order.OrderUpdateID <= s.orderUpdateID {
		s.mu.Unlock()
		s.logger.Warn("ignoring stale order update",
			"orderId", order.OrderID,
			"orderUpdateId", order.OrderUpdateID)
		return
	}

	s.orderID = order.OrderID
	s.orderUpdateID = order.OrderUpdateID
	s.nodes = nil
	s.edges = nil

	// Completed actions from earlier orders stop being reported once a new
	// order takes over.
	kept := s.actionStates[:0]
	for _, as := range s.actionStates {
		if as.ActionStatus != message.ActionFinished && as.ActionStatus != message.ActionFailed {
			kept = append(kept, as)
		}
	}
	s.actionStates = kept
	for _, n := range order.Nodes {
		if n.Released {
			s.nodes = append(s.nodes, n)
		}
	}
	for _, e := range order.Edges {
		if e.Released {
			s.edges = append(s.edges, e)
		}
	}
	for _, n := range s.nodes {
		for _, a := range n.Actions {
			s.actionStates = append(s.actionStates, message.ActionState{
				ActionID:     a.ActionID,
				ActionType:   a.ActionType,
				ActionStatus: message.ActionWaiting,
			})
		}
	}
	released := len(s.nodes)
	s.mu.Unlock()

	s.logger.Info("order accepted",
		"orderId", order.OrderID,
		"orderUpdateId", order.OrderUpdateID,
		"releasedNodes", released,
		"horizonNodes", len(order.Nodes)-released)
	s.publishState(ctx)
}

// execInstantActions handles the standard instant actions a demo vehicle
// supports. Anything else is reported FAILED so the master sees the
// rejection in the next state.
func (s *simulator) execInstantActions(ctx context.Context, ia *message.InstantActions) {
	for _, a := range ia.Actions {
		switch a.ActionType {
		case "startPause":
			s.setPaused(true)
			s.finishAction(a, "vehicle paused")
		case "stopPause":
			s.setPaused(false)
			s.finishAction(a, "vehicle resumed")
		case "cancelOrder":
			s.cancelOrder()
			s.finishAction(a, "order cancelled")
		case "stateRequest":
			s.finishAction(a, "")
		case "factsheetRequest":
			s.finishAction(a, "")
			s.publishFactsheet(ctx)
		default:
			s.logger.Warn("unsupported instant action", "actionType", a.ActionType, "actionId", a.ActionID)
			s.failAction(a, "action not supported by this vehicle")
		}
		s.logger.Info("instant action processed", "actionType", a.ActionType, "actionId", a.ActionID)
	}
	s.publishState(ctx)
}

func (s *simulator) setPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

func (s *simulator) cancelOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nil
	s.edges = nil
	for i := range s.actionStates {
		if st := s.actionStates[i].ActionStatus; st == message.ActionWaiting || st == message.ActionRunning {
			s.actionStates[i].ActionStatus = message.ActionFailed
			s.actionStates[i].ResultDescription = "order cancelled"
		}
	}
}

func (s *simulator) finishAction(a message.Action, result string) {
	s.recordAction(a, message.ActionFinished, result)
}

func (s *simulator) failAction(a message.Action, result string) {
	s.recordAction(a, message.ActionFailed, result)
}

func (s *simulator) recordAction(a message.Action, status message.ActionStatus, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionStates = append(s.actionStates, message.ActionState{
		ActionID:          a.ActionID,
		ActionType:        a.ActionType,
		ActionStatus:      status,
		ResultDescription: result,
	})
}

// tick advances the vehicle by one time slice toward the next released node.
func (s *simulator) tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || len(s.nodes) == 0 {
		return
	}

	next := s.nodes[0]
	if next.NodePosition == nil {
		// Logical node without coordinates, reached immediately.
		s.arriveLocked(next)
		return
	}

	dx := next.NodePosition.X - s.x
	dy := next.NodePosition.Y - s.y
	dist := math.Hypot(dx, dy)
	step := s.speed * dt.Seconds()

	if dist <= step {
		s.x = next.NodePosition.X
		s.y = next.NodePosition.Y
		s.drainLocked(dist)
		s.arriveLocked(next)
		return
	}

	s.theta = math.Atan2(dy, dx)
	s.x += step * dx / dist
	s.y += step * dy / dist
	s.drainLocked(step)
}

func (s *simulator) drainLocked(meters float64) {
	s.battery -= meters * 0.02
	if s.battery < 0 {
		s.battery = 0
	}
}

func (s *simulator) arriveLocked(n message.Node) {
	s.lastNodeID = n.NodeID
	s.lastNodeSeq = n.SequenceID
	if n.NodePosition != nil {
		s.mapID = n.NodePosition.MapID
	}
	for _, a := range n.Actions {
		for i := range s.actionStates {
			if s.actionStates[i].ActionID == a.ActionID {
				s.actionStates[i].ActionStatus = message.ActionFinished
			}
		}
	}
	s.nodes = s.nodes[1:]
	for len(s.edges) > 0 && s.edges[0].SequenceID < n.SequenceID {
		s.edges = s.edges[1:]
	}
	s.logger.Info("node reached", "nodeId", n.NodeID, "sequenceId", n.SequenceID, "remaining", len(s.nodes))
}

// snapshot assembles the full state report from the current vehicle model.
func (s *simulator) snapshot() *message.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := message.NewState()
	st.OrderID = s.orderID
	st.OrderUpdateID = s.orderUpdateID
	st.LastNodeID = s.lastNodeID
	st.LastNodeSequenceID = s.lastNodeSeq
	st.Driving = !s.paused && len(s.nodes) > 0
	paused := s.paused
	st.Paused = &paused
	st.OperatingMode = message.OperatingModeAutomatic
	st.BatteryState = message.BatteryState{BatteryCharge: s.battery, Charging: false}
	st.SafetyState = message.SafetyState{EStop: message.EStopNone, FieldViolation: false}
	st.AGVPosition = &message.AGVPosition{
		X:                   s.x,
		Y:                   s.y,
		Theta:               s.theta,
		MapID:               s.mapID,
		PositionInitialized: true,
	}
	if st.Driving {
		vx := s.speed * math.Cos(s.theta)
		vy := s.speed * math.Sin(s.theta)
		st.Velocity = &message.Velocity{VX: &vx, VY: &vy}
	}

	for _, n := range s.nodes {
		ns := message.NodeState{NodeID: n.NodeID, SequenceID: n.SequenceID, Released: n.Released}
		if n.NodePosition != nil {
			ns.NodePosition = &message.StateNodePosition{
				X:     n.NodePosition.X,
				Y:     n.NodePosition.Y,
				MapID: n.NodePosition.MapID,
			}
		}
		st.NodeStates = append(st.NodeStates, ns)
	}
	for _, e := range s.edges {
		st.EdgeStates = append(st.EdgeStates, message.EdgeState{
			EdgeID:     e.EdgeID,
			SequenceID: e.SequenceID,
			Released:   e.Released,
		})
	}
	st.ActionStates = append(st.ActionStates, s.actionStates...)
	return st
}

func (s *simulator) visual() *message.Visualization {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &message.Visualization{
		AGVPosition: &message.AGVPosition{
			X:                   s.x,
			Y:                   s.y,
			Theta:               s.theta,
			MapID:               s.mapID,
			PositionInitialized: true,
		},
	}
}

func (s *simulator) publishState(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.agv.PublishState(ctx, s.snapshot()); err != nil {
		s.logPublishError("state", err)
	}
}

func (s *simulator) publishVisualization(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.agv.PublishVisualization(ctx, s.visual()); err != nil {
		s.logPublishError("visualization", err)
	}
}

func (s *simulator) publishFactsheet(ctx context.Context) {
	if err := s.agv.PublishFactsheet(ctx, s.factsheet); err != nil {
		s.logPublishError("factsheet", err)
	}
}

func (s *simulator) logPublishError(what string, err error) {
	// Transient failures are expected while the session reconnects.
	if errors.IsTransient(err) {
		s.logger.Debug("publish skipped", "messageType", what, "error", err)
		return
	}
	s.logger.Warn("publish failed", "messageType", what, "error", err)
}

// demoFactsheet describes the simulated vehicle. The visualization interval
// here drives the client-side rate limit.
func demoFactsheet(visualizationInterval float64) *message.Factsheet {
	return &message.Factsheet{
		TypeSpecification: message.TypeSpecification{
			SeriesName:        "sim",
			SeriesDescription: "simulated differential-drive tugger",
			AGVKinematic:      message.KinematicDiff,
			AGVClass:          message.ClassTugger,
			MaxLoadMass:       500,
			LocalizationTypes: []message.LocalizationType{message.LocalizationNatural},
			NavigationTypes:   []message.NavigationType{message.NavigationAutonomous},
		},
		PhysicalParameters: message.PhysicalParameters{
			SpeedMin:        0.1,
			SpeedMax:        2.0,
			AccelerationMax: 0.5,
			DecelerationMax: 0.5,
			HeightMax:       1.8,
			Width:           0.9,
			Length:          1.4,
		},
		ProtocolLimits: message.ProtocolLimits{
			Timing: message.Timing{
				MinOrderInterval:      1.0,
				MinStateInterval:      1.0,
				VisualizationInterval: &visualizationInterval,
			},
		},
		ProtocolFeatures: message.ProtocolFeatures{
			OptionalParameters: []message.OptionalParameter{},
			AGVActions: []message.AGVAction{
				{ActionType: "startPause", ActionScopes: []message.ActionScope{message.ScopeInstant}},
				{ActionType: "stopPause", ActionScopes: []message.ActionScope{message.ScopeInstant}},
				{ActionType: "cancelOrder", ActionScopes: []message.ActionScope{message.ScopeInstant}},
				{ActionType: "stateRequest", ActionScopes: []message.ActionScope{message.ScopeInstant}},
				{ActionType: "factsheetRequest", ActionScopes: []message.ActionScope{message.ScopeInstant}},
			},
		},
	}
}
