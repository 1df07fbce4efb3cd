package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// NodePosition is a node's position on a map in world coordinates. Optional
// for vehicle types that do not need it, such as line-guided vehicles.
type NodePosition struct {
	X                     float64  `json:"x"`
	Y                     float64  `json:"y"`
	Theta                 *float64 `json:"theta,omitempty"`
	AllowedDeviationXY    *float64 `json:"allowedDeviationXY,omitempty"`
	AllowedDeviationTheta *float64 `json:"allowedDeviationTheta,omitempty"`
	MapID                 string   `json:"mapId"`
	MapDescription        string   `json:"mapDescription,omitempty"`
}

// Node is one stop of an order. Released nodes form the base the AGV commits
// to; unreleased nodes are the horizon.
type Node struct {
	NodeID          string        `json:"nodeId"`
	SequenceID      int           `json:"sequenceId"`
	NodeDescription string        `json:"nodeDescription,omitempty"`
	Released        bool          `json:"released"`
	NodePosition    *NodePosition `json:"nodePosition,omitempty"`
	Actions         []Action      `json:"actions"`
}

// Validate checks the required node fields.
func (n *Node) Validate() error {
	if n.NodeID == "" {
		return fmt.Errorf("node missing nodeId: %w", errors.ErrInvalidMessage)
	}
	if n.SequenceID < 0 {
		return fmt.Errorf("node %q has negative sequenceId: %w", n.NodeID, errors.ErrInvalidMessage)
	}
	for i := range n.Actions {
		if err := n.Actions[i].Validate(); err != nil {
			return fmt.Errorf("node %q: %w", n.NodeID, err)
		}
	}
	return nil
}

// OrientationType says how an edge orientation is to be interpreted.
type OrientationType string

const (
	// OrientationGlobal is relative to the global map coordinate system.
	OrientationGlobal OrientationType = "GLOBAL"
	// OrientationTangential is tangential to the edge; the default.
	OrientationTangential OrientationType = "TANGENTIAL"
)

// CorridorRefPoint says which point of the vehicle the corridor bounds refer to.
type CorridorRefPoint string

const (
	CorridorRefKinematicCenter CorridorRefPoint = "KINEMATICCENTER"
	CorridorRefContour         CorridorRefPoint = "CONTOUR"
)

// Corridor bounds how far a vehicle may deviate from its trajectory on an
// edge, e.g. to avoid obstacles.
type Corridor struct {
	LeftWidth        float64          `json:"leftWidth"`
	RightWidth       float64          `json:"rightWidth"`
	CorridorRefPoint CorridorRefPoint `json:"corridorRefPoint,omitempty"`
}

// Edge is a directed connection between two nodes of an order.
type Edge struct {
	EdgeID           string          `json:"edgeId"`
	SequenceID       int             `json:"sequenceId"`
	EdgeDescription  string          `json:"edgeDescription,omitempty"`
	Released         bool            `json:"released"`
	StartNodeID      string          `json:"startNodeId"`
	EndNodeID        string          `json:"endNodeId"`
	MaxSpeed         *float64        `json:"maxSpeed,omitempty"`
	MaxHeight        *float64        `json:"maxHeight,omitempty"`
	MinHeight        *float64        `json:"minHeight,omitempty"`
	Orientation      *float64        `json:"orientation,omitempty"`
	OrientationType  OrientationType `json:"orientationType,omitempty"`
	Direction        string          `json:"direction,omitempty"`
	RotationAllowed  *bool           `json:"rotationAllowed,omitempty"`
	MaxRotationSpeed *float64        `json:"maxRotationSpeed,omitempty"`
	Length           *float64        `json:"length,omitempty"`
	Trajectory       *Trajectory     `json:"trajectory,omitempty"`
	Corridor         *Corridor       `json:"corridor,omitempty"`
	Actions          []Action        `json:"actions"`
}

// Validate checks the required edge fields.
func (e *Edge) Validate() error {
	if e.EdgeID == "" {
		return fmt.Errorf("edge missing edgeId: %w", errors.ErrInvalidMessage)
	}
	if e.SequenceID < 0 {
		return fmt.Errorf("edge %q has negative sequenceId: %w", e.EdgeID, errors.ErrInvalidMessage)
	}
	if e.StartNodeID == "" || e.EndNodeID == "" {
		return fmt.Errorf("edge %q missing start or end node: %w", e.EdgeID, errors.ErrInvalidMessage)
	}
	if e.Trajectory != nil {
		if err := e.Trajectory.Validate(); err != nil {
			return fmt.Errorf("edge %q: %w", e.EdgeID, err)
		}
	}
	for i := range e.Actions {
		if err := e.Actions[i].Validate(); err != nil {
			return fmt.Errorf("edge %q: %w", e.EdgeID, err)
		}
	}
	return nil
}

// Order is a mission from master control to one AGV: a graph of nodes and
// edges to traverse. Messages with the same orderId and increasing
// orderUpdateId extend or release a running order.
type Order struct {
	Header
	OrderID       string `json:"orderId"`
	OrderUpdateID int    `json:"orderUpdateId"`
	ZoneSetID     string `json:"zoneSetId,omitempty"`
	Nodes         []Node `json:"nodes"`
	Edges         []Edge `json:"edges"`
}

// MessageType implements Message.
func (o *Order) MessageType() Type { return TypeOrder }

// Validate implements Message. One node with no edges is the smallest valid
// order.
func (o *Order) Validate() error {
	if o.OrderID == "" {
		return fmt.Errorf("order missing orderId: %w", errors.ErrInvalidMessage)
	}
	if o.OrderUpdateID < 0 {
		return fmt.Errorf("order %q has negative orderUpdateId: %w", o.OrderID, errors.ErrInvalidMessage)
	}
	if len(o.Nodes) == 0 {
		return fmt.Errorf("order %q has no nodes: %w", o.OrderID, errors.ErrInvalidMessage)
	}
	for i := range o.Nodes {
		if err := o.Nodes[i].Validate(); err != nil {
			return fmt.Errorf("order %q: %w", o.OrderID, err)
		}
	}
	nodeIDs := make(map[string]struct{}, len(o.Nodes))
	for i := range o.Nodes {
		nodeIDs[o.Nodes[i].NodeID] = struct{}{}
	}
	for i := range o.Edges {
		e := &o.Edges[i]
		if err := e.Validate(); err != nil {
			return fmt.Errorf("order %q: %w", o.OrderID, err)
		}
		if _, ok := nodeIDs[e.StartNodeID]; !ok {
			return fmt.Errorf("order %q edge %q starts at unknown node %q: %w",
				o.OrderID, e.EdgeID, e.StartNodeID, errors.ErrInvalidMessage)
		}
		if _, ok := nodeIDs[e.EndNodeID]; !ok {
			return fmt.Errorf("order %q edge %q ends at unknown node %q: %w",
				o.OrderID, e.EdgeID, e.EndNodeID, errors.ErrInvalidMessage)
		}
	}
	return nil
}
