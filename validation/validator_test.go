package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
)

const validConnection = `{
	"headerId": 1,
	"timestamp": "2026-08-25T10:00:00.000Z",
	"version": "2.0.0",
	"manufacturer": "acme",
	"serialNumber": "agv-001",
	"connectionState": "ONLINE"
}`

const validOrder = `{
	"headerId": 2,
	"timestamp": "2026-08-25T10:00:01.000Z",
	"version": "2.0.0",
	"manufacturer": "acme",
	"serialNumber": "agv-001",
	"orderId": "order-1",
	"orderUpdateId": 0,
	"nodes": [
		{
			"nodeId": "n1",
			"sequenceId": 0,
			"released": true,
			"nodePosition": {"x": 0.0, "y": 0.0, "mapId": "warehouse"},
			"actions": []
		}
	],
	"edges": []
}`

func TestNew(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NotNil(t, v)

	// Every protocol message type must have a compiled schema.
	for _, mt := range message.AllTypes() {
		assert.Contains(t, v.schemas, mt, "missing schema for %s", mt)
	}
}

func TestValidator_Validate(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	tests := []struct {
		name         string
		msgType      message.Type
		payload      string
		wantErr      bool
		wantContains string
	}{
		{
			name:    "valid connection",
			msgType: message.TypeConnection,
			payload: validConnection,
		},
		{
			name:    "valid order",
			msgType: message.TypeOrder,
			payload: validOrder,
		},
		{
			name:    "missing connectionState",
			msgType: message.TypeConnection,
			payload: `{
				"headerId": 1,
				"timestamp": "2026-08-25T10:00:00.000Z",
				"version": "2.0.0",
				"manufacturer": "acme",
				"serialNumber": "agv-001"
			}`,
			wantErr:      true,
			wantContains: "connectionState",
		},
		{
			name:    "connectionState outside enum",
			msgType: message.TypeConnection,
			payload: `{
				"headerId": 1,
				"timestamp": "2026-08-25T10:00:00.000Z",
				"version": "2.0.0",
				"manufacturer": "acme",
				"serialNumber": "agv-001",
				"connectionState": "SOMETIMES"
			}`,
			wantErr:      true,
			wantContains: "connectionState",
		},
		{
			name:    "missing headerId",
			msgType: message.TypeConnection,
			payload: `{
				"timestamp": "2026-08-25T10:00:00.000Z",
				"version": "2.0.0",
				"manufacturer": "acme",
				"serialNumber": "agv-001",
				"connectionState": "OFFLINE"
			}`,
			wantErr:      true,
			wantContains: "headerId",
		},
		{
			name:    "order without nodes",
			msgType: message.TypeOrder,
			payload: `{
				"headerId": 2,
				"timestamp": "2026-08-25T10:00:01.000Z",
				"version": "2.0.0",
				"manufacturer": "acme",
				"serialNumber": "agv-001",
				"orderId": "order-1",
				"orderUpdateId": 0,
				"nodes": [],
				"edges": []
			}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			msgType: message.TypeConnection,
			payload: `{"headerId": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.msgType, []byte(tt.payload))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "schema violations must classify as invalid, got: %v", err)
			if tt.wantContains != "" {
				assert.Contains(t, err.Error(), tt.wantContains)
			}
		})
	}
}

func TestValidator_Validate_UnknownType(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Validate(message.Type("telemetry"), []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownMessageType)
}

func TestValidator_Validate_ReportsAllViolations(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	// Two independent problems in one payload; both must show up.
	err = v.Validate(message.TypeConnection, []byte(`{
		"headerId": 1,
		"timestamp": "2026-08-25T10:00:00.000Z",
		"manufacturer": "acme",
		"serialNumber": "agv-001",
		"connectionState": "SOMETIMES"
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
	assert.Contains(t, err.Error(), "connectionState")
}

func TestValidator_ValidateMessage(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	conn := message.NewConnection(message.ConnectionOnline)
	conn.Stamp(7, "2.0.0", "acme", "agv-001", time.Now())
	assert.NoError(t, v.ValidateMessage(conn))

	st := message.NewState()
	st.OperatingMode = message.OperatingModeAutomatic
	st.SafetyState = message.SafetyState{EStop: message.EStopNone, FieldViolation: false}
	st.Stamp(8, "2.0.0", "acme", "agv-001", time.Now())
	assert.NoError(t, v.ValidateMessage(st))
}

func TestSchema(t *testing.T) {
	for _, mt := range message.AllTypes() {
		raw, err := Schema(mt)
		require.NoError(t, err, "schema for %s", mt)
		assert.NotEmpty(t, raw)
	}

	_, err := Schema(message.Type("telemetry"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownMessageType)
}
