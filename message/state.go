package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// OperatingMode is the AGV's current mode of operation.
type OperatingMode string

const (
	OperatingModeAutomatic     OperatingMode = "AUTOMATIC"
	OperatingModeSemiAutomatic OperatingMode = "SEMIAUTOMATIC"
	OperatingModeManual        OperatingMode = "MANUAL"
	OperatingModeService       OperatingMode = "SERVICE"
	OperatingModeTeachIn       OperatingMode = "TEACHIN"
)

// IsValid reports whether m is a defined operating mode.
func (m OperatingMode) IsValid() bool {
	switch m {
	case OperatingModeAutomatic, OperatingModeSemiAutomatic, OperatingModeManual,
		OperatingModeService, OperatingModeTeachIn:
		return true
	}
	return false
}

// ActionStatus is the lifecycle state of one action on the AGV.
type ActionStatus string

const (
	ActionWaiting      ActionStatus = "WAITING"
	ActionInitializing ActionStatus = "INITIALIZING"
	ActionRunning      ActionStatus = "RUNNING"
	ActionPaused       ActionStatus = "PAUSED"
	ActionFinished     ActionStatus = "FINISHED"
	ActionFailed       ActionStatus = "FAILED"
)

// IsValid reports whether s is a defined action status.
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionWaiting, ActionInitializing, ActionRunning, ActionPaused, ActionFinished, ActionFailed:
		return true
	}
	return false
}

// ErrorLevel grades state errors: WARNING keeps the AGV operational, FATAL
// requires intervention.
type ErrorLevel string

const (
	ErrorLevelWarning ErrorLevel = "WARNING"
	ErrorLevelFatal   ErrorLevel = "FATAL"
)

// InfoLevel grades state information entries.
type InfoLevel string

const (
	InfoLevelInfo  InfoLevel = "INFO"
	InfoLevelDebug InfoLevel = "DEBUG"
)

// EStop is the acknowledge type of an active emergency stop.
type EStop string

const (
	EStopAutoAck EStop = "AUTOACK"
	EStopManual  EStop = "MANUAL"
	EStopRemote  EStop = "REMOTE"
	EStopNone    EStop = "NONE"
)

// IsValid reports whether e is a defined e-stop type.
func (e EStop) IsValid() bool {
	switch e {
	case EStopAutoAck, EStopManual, EStopRemote, EStopNone:
		return true
	}
	return false
}

// MapStatus says whether a map stored on the vehicle is active.
type MapStatus string

const (
	MapEnabled  MapStatus = "ENABLED"
	MapDisabled MapStatus = "DISABLED"
)

// Map describes one map stored on the vehicle.
type Map struct {
	MapID          string    `json:"mapId"`
	MapVersion     string    `json:"mapVersion"`
	MapDescription string    `json:"mapDescription,omitempty"`
	MapStatus      MapStatus `json:"mapStatus"`
}

// StateNodePosition is the reduced node position echoed in nodeStates.
type StateNodePosition struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Theta *float64 `json:"theta,omitempty"`
	MapID string   `json:"mapId"`
}

// NodeState is one node of the order graph still ahead of the AGV.
type NodeState struct {
	NodeID          string             `json:"nodeId"`
	SequenceID      int                `json:"sequenceId"`
	NodeDescription string             `json:"nodeDescription,omitempty"`
	Released        bool               `json:"released"`
	NodePosition    *StateNodePosition `json:"nodePosition,omitempty"`
}

// EdgeState is one edge of the order graph still ahead of the AGV.
type EdgeState struct {
	EdgeID          string      `json:"edgeId"`
	SequenceID      int         `json:"sequenceId"`
	EdgeDescription string      `json:"edgeDescription,omitempty"`
	Released        bool        `json:"released"`
	Trajectory      *Trajectory `json:"trajectory,omitempty"`
}

// ActionState reports the progress of one action.
type ActionState struct {
	ActionID          string       `json:"actionId"`
	ActionType        string       `json:"actionType,omitempty"`
	ActionDescription string       `json:"actionDescription,omitempty"`
	ActionStatus      ActionStatus `json:"actionStatus"`
	ResultDescription string       `json:"resultDescription,omitempty"`
}

// BatteryState carries all battery-related information.
type BatteryState struct {
	BatteryCharge  float64  `json:"batteryCharge"`
	BatteryVoltage *float64 `json:"batteryVoltage,omitempty"`
	BatteryHealth  *float64 `json:"batteryHealth,omitempty"`
	Charging       bool     `json:"charging"`
	Reach          *float64 `json:"reach,omitempty"`
}

// ErrorReference ties an error to the protocol element that caused it, e.g.
// an orderId or nodeId.
type ErrorReference struct {
	ReferenceKey   string `json:"referenceKey"`
	ReferenceValue string `json:"referenceValue"`
}

// Error is one active error of the AGV.
type Error struct {
	ErrorType        string           `json:"errorType"`
	ErrorReferences  []ErrorReference `json:"errorReferences,omitempty"`
	ErrorDescription string           `json:"errorDescription,omitempty"`
	ErrorHint        string           `json:"errorHint,omitempty"`
	ErrorLevel       ErrorLevel       `json:"errorLevel"`
}

// InfoReference ties an information entry to a protocol element.
type InfoReference struct {
	ReferenceKey   string `json:"referenceKey"`
	ReferenceValue string `json:"referenceValue"`
}

// Info is one informational entry, for visualization and debugging only.
type Info struct {
	InfoType        string          `json:"infoType"`
	InfoReferences  []InfoReference `json:"infoReferences,omitempty"`
	InfoDescription string          `json:"infoDescription,omitempty"`
	InfoLevel       InfoLevel       `json:"infoLevel"`
}

// SafetyState carries all safety-related information.
type SafetyState struct {
	EStop          EStop `json:"eStop"`
	FieldViolation bool  `json:"fieldViolation"`
}

// Load describes one load currently on the AGV.
type Load struct {
	LoadID               string                `json:"loadId,omitempty"`
	LoadType             string                `json:"loadType,omitempty"`
	LoadPosition         string                `json:"loadPosition,omitempty"`
	BoundingBoxReference *BoundingBoxReference `json:"boundingBoxReference,omitempty"`
	LoadDimensions       *LoadDimensions       `json:"loadDimensions,omitempty"`
	Weight               *float64              `json:"weight,omitempty"`
}

// State is the AGV's full self-report: order progress, position, battery,
// actions, errors and safety. AGVs publish it periodically and on every
// significant change.
//
// The required array fields marshal as empty arrays rather than null when
// the AGV is idle, so keep them non-nil.
type State struct {
	Header
	Maps                  []Map         `json:"maps,omitempty"`
	OrderID               string        `json:"orderId"`
	OrderUpdateID         int           `json:"orderUpdateId"`
	ZoneSetID             string        `json:"zoneSetId,omitempty"`
	LastNodeID            string        `json:"lastNodeId"`
	LastNodeSequenceID    int           `json:"lastNodeSequenceId"`
	Driving               bool          `json:"driving"`
	Paused                *bool         `json:"paused,omitempty"`
	NewBaseRequest        *bool         `json:"newBaseRequest,omitempty"`
	DistanceSinceLastNode *float64      `json:"distanceSinceLastNode,omitempty"`
	OperatingMode         OperatingMode `json:"operatingMode"`
	NodeStates            []NodeState   `json:"nodeStates"`
	EdgeStates            []EdgeState   `json:"edgeStates"`
	AGVPosition           *AGVPosition  `json:"agvPosition,omitempty"`
	Velocity              *Velocity     `json:"velocity,omitempty"`
	Loads                 []Load        `json:"loads,omitempty"`
	ActionStates          []ActionState `json:"actionStates"`
	BatteryState          BatteryState  `json:"batteryState"`
	Errors                []Error       `json:"errors"`
	Information           []Info        `json:"information,omitempty"`
	SafetyState           SafetyState   `json:"safetyState"`
}

// NewState returns a state message with the required arrays initialized, so
// an idle AGV's report marshals with empty arrays as the protocol expects.
func NewState() *State {
	return &State{
		NodeStates:   []NodeState{},
		EdgeStates:   []EdgeState{},
		ActionStates: []ActionState{},
		Errors:       []Error{},
	}
}

// MessageType implements Message.
func (s *State) MessageType() Type { return TypeState }

// Validate implements Message.
func (s *State) Validate() error {
	if !s.OperatingMode.IsValid() {
		return fmt.Errorf("state operatingMode %q: %w", s.OperatingMode, errors.ErrInvalidMessage)
	}
	if !s.SafetyState.EStop.IsValid() {
		return fmt.Errorf("state eStop %q: %w", s.SafetyState.EStop, errors.ErrInvalidMessage)
	}
	for i := range s.ActionStates {
		as := &s.ActionStates[i]
		if as.ActionID == "" {
			return fmt.Errorf("actionState %d missing actionId: %w", i, errors.ErrInvalidMessage)
		}
		if !as.ActionStatus.IsValid() {
			return fmt.Errorf("actionState %q has status %q: %w", as.ActionID, as.ActionStatus, errors.ErrInvalidMessage)
		}
	}
	for i := range s.Errors {
		e := &s.Errors[i]
		if e.ErrorType == "" {
			return fmt.Errorf("error %d missing errorType: %w", i, errors.ErrInvalidMessage)
		}
		if e.ErrorLevel != ErrorLevelWarning && e.ErrorLevel != ErrorLevelFatal {
			return fmt.Errorf("error %q has level %q: %w", e.ErrorType, e.ErrorLevel, errors.ErrInvalidMessage)
		}
	}
	return nil
}

// HasFatalError reports whether any active error is FATAL.
func (s *State) HasFatalError() bool {
	for i := range s.Errors {
		if s.Errors[i].ErrorLevel == ErrorLevelFatal {
			return true
		}
	}
	return false
}
