package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() *Order {
	return &Order{
		OrderID:       "order-1",
		OrderUpdateID: 0,
		Nodes: []Node{
			{NodeID: "n1", SequenceID: 0, Released: true, Actions: []Action{}},
			{NodeID: "n2", SequenceID: 2, Released: false, Actions: []Action{}},
		},
		Edges: []Edge{
			{EdgeID: "e1", SequenceID: 1, Released: true,
				StartNodeID: "n1", EndNodeID: "n2", Actions: []Action{}},
		},
	}
}

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Order)
		wantErr string
	}{
		{
			name:   "valid order",
			mutate: func(o *Order) {},
		},
		{
			name: "single node no edges",
			mutate: func(o *Order) {
				o.Nodes = o.Nodes[:1]
				o.Edges = nil
			},
		},
		{
			name:    "missing orderId",
			mutate:  func(o *Order) { o.OrderID = "" },
			wantErr: "orderId",
		},
		{
			name:    "negative orderUpdateId",
			mutate:  func(o *Order) { o.OrderUpdateID = -1 },
			wantErr: "orderUpdateId",
		},
		{
			name:    "no nodes",
			mutate:  func(o *Order) { o.Nodes = nil },
			wantErr: "no nodes",
		},
		{
			name:    "node without id",
			mutate:  func(o *Order) { o.Nodes[0].NodeID = "" },
			wantErr: "nodeId",
		},
		{
			name:    "edge starts at unknown node",
			mutate:  func(o *Order) { o.Edges[0].StartNodeID = "ghost" },
			wantErr: "unknown node",
		},
		{
			name:    "edge ends at unknown node",
			mutate:  func(o *Order) { o.Edges[0].EndNodeID = "ghost" },
			wantErr: "unknown node",
		},
		{
			name: "edge without start",
			mutate: func(o *Order) {
				o.Edges[0].StartNodeID = ""
			},
			wantErr: "start or end",
		},
		{
			name: "node action without blockingType",
			mutate: func(o *Order) {
				o.Nodes[0].Actions = []Action{{ActionType: "pick", ActionID: "a1"}}
			},
			wantErr: "blockingType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTrajectory_Validate(t *testing.T) {
	w := 1.0
	traj := Trajectory{
		Degree:     3,
		KnotVector: []float64{0, 0, 0, 0, 1, 1, 1, 1},
		ControlPoints: []ControlPoint{
			{X: 0, Y: 0, Weight: &w},
			{X: 1, Y: 0},
			{X: 1, Y: 1},
			{X: 2, Y: 1},
		},
	}
	require.NoError(t, traj.Validate(), "knot count = controlPoints + degree + 1")

	short := traj
	short.KnotVector = traj.KnotVector[:6]
	err := short.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knot vector")

	flat := traj
	flat.Degree = 0
	assert.Error(t, flat.Validate())

	empty := traj
	empty.ControlPoints = nil
	assert.Error(t, empty.Validate())
}

func TestOrder_DecodeFull(t *testing.T) {
	payload := []byte(`{
		"headerId": 5,
		"timestamp": "2026-08-25T10:00:00.000Z",
		"version": "2.0.0",
		"manufacturer": "acme",
		"serialNumber": "agv-001",
		"orderId": "order-7",
		"orderUpdateId": 1,
		"nodes": [
			{
				"nodeId": "n1",
				"sequenceId": 0,
				"released": true,
				"nodePosition": {"x": 1.5, "y": -0.5, "theta": 0.0, "mapId": "hall-a"},
				"actions": [
					{
						"actionType": "pick",
						"actionId": "a-1",
						"blockingType": "HARD",
						"actionParameters": [{"key": "lhd", "value": "front"}]
					}
				]
			},
			{"nodeId": "n2", "sequenceId": 2, "released": false, "actions": []}
		],
		"edges": [
			{
				"edgeId": "e1",
				"sequenceId": 1,
				"released": true,
				"startNodeId": "n1",
				"endNodeId": "n2",
				"maxSpeed": 1.2,
				"actions": []
			}
		]
	}`)

	m, err := Decode(TypeOrder, payload)
	require.NoError(t, err)

	o := m.(*Order)
	assert.Equal(t, "order-7", o.OrderID)
	assert.Equal(t, 1, o.OrderUpdateID)
	require.Len(t, o.Nodes, 2)
	require.Len(t, o.Edges, 1)

	require.NotNil(t, o.Nodes[0].NodePosition)
	assert.Equal(t, "hall-a", o.Nodes[0].NodePosition.MapID)

	require.Len(t, o.Nodes[0].Actions, 1)
	v, ok := o.Nodes[0].Actions[0].Parameter("lhd")
	require.True(t, ok)
	assert.Equal(t, "front", v)

	require.NotNil(t, o.Edges[0].MaxSpeed)
	assert.Equal(t, 1.2, *o.Edges[0].MaxSpeed)
	assert.False(t, o.Nodes[1].Released, "horizon nodes stay unreleased")
}
