package message

import "github.com/google/uuid"

// Standard action types defined by the protocol. AGVs may support further
// manufacturer-specific types, declared in their factsheet.
const (
	ActionTypeStartPause       = "startPause"
	ActionTypeStopPause        = "stopPause"
	ActionTypeStartCharging    = "startCharging"
	ActionTypeStopCharging     = "stopCharging"
	ActionTypeInitPosition     = "initPosition"
	ActionTypeStateRequest     = "stateRequest"
	ActionTypeLogReport        = "logReport"
	ActionTypeCancelOrder      = "cancelOrder"
	ActionTypeFactsheetRequest = "factsheetRequest"
	ActionTypePick             = "pick"
	ActionTypeDrop             = "drop"
)

// NewAction builds an action with a fresh UUID actionId, as the protocol
// suggests for action tracking.
func NewAction(actionType string, blocking BlockingType, params ...ActionParameter) Action {
	return Action{
		ActionType:       actionType,
		ActionID:         uuid.NewString(),
		BlockingType:     blocking,
		ActionParameters: params,
	}
}
