package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// InstantActions carries actions the AGV must execute immediately, outside
// the order graph. Standard instant actions include startPause, stopPause,
// cancelOrder, stateRequest and factsheetRequest.
type InstantActions struct {
	Header
	Actions []Action `json:"actions"`
}

// NewInstantActions returns an instantActions message wrapping the given
// actions.
func NewInstantActions(actions ...Action) *InstantActions {
	return &InstantActions{Actions: actions}
}

// MessageType implements Message.
func (ia *InstantActions) MessageType() Type { return TypeInstantActions }

// Validate implements Message.
func (ia *InstantActions) Validate() error {
	if len(ia.Actions) == 0 {
		return fmt.Errorf("instantActions without actions: %w", errors.ErrInvalidMessage)
	}
	for i := range ia.Actions {
		if err := ia.Actions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
