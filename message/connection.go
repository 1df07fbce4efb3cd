package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// ConnectionState is the broker connectivity of an AGV as announced on its
// connection topic.
type ConnectionState string

const (
	// ConnectionOnline means the connection between AGV and broker is active.
	ConnectionOnline ConnectionState = "ONLINE"
	// ConnectionOffline means the AGV disconnected in a coordinated way.
	ConnectionOffline ConnectionState = "OFFLINE"
	// ConnectionBroken means the connection ended unexpectedly. Brokers publish
	// this through the AGV's last will.
	ConnectionBroken ConnectionState = "CONNECTIONBROKEN"
)

// IsValid reports whether s is a defined connection state.
func (s ConnectionState) IsValid() bool {
	switch s {
	case ConnectionOnline, ConnectionOffline, ConnectionBroken:
		return true
	}
	return false
}

// Connection announces an AGV's broker connectivity. AGVs publish it retained
// so late subscribers immediately learn the last known state.
type Connection struct {
	Header
	ConnectionState ConnectionState `json:"connectionState"`
}

// NewConnection returns a connection message for the given state. The header
// is stamped by the publishing client.
func NewConnection(state ConnectionState) *Connection {
	return &Connection{ConnectionState: state}
}

// MessageType implements Message.
func (c *Connection) MessageType() Type { return TypeConnection }

// Validate implements Message.
func (c *Connection) Validate() error {
	if !c.ConnectionState.IsValid() {
		return fmt.Errorf("connectionState %q: %w", c.ConnectionState, errors.ErrInvalidMessage)
	}
	return nil
}
