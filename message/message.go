// Package message defines the VDA5050 message types and their JSON wire format.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Type identifies a VDA5050 message type. Its string value is the final topic
// level the message travels on.
type Type string

// The six VDA5050 message types.
const (
	TypeOrder          Type = "order"
	TypeInstantActions Type = "instantActions"
	TypeState          Type = "state"
	TypeVisualization  Type = "visualization"
	TypeConnection     Type = "connection"
	TypeFactsheet      Type = "factsheet"
)

// String returns the topic form of the message type.
func (t Type) String() string { return string(t) }

// IsValid reports whether t is one of the six protocol message types.
func (t Type) IsValid() bool {
	switch t {
	case TypeOrder, TypeInstantActions, TypeState, TypeVisualization, TypeConnection, TypeFactsheet:
		return true
	}
	return false
}

// AllTypes returns the message types in a stable order.
func AllTypes() []Type {
	return []Type{TypeOrder, TypeInstantActions, TypeState, TypeVisualization, TypeConnection, TypeFactsheet}
}

// Message is implemented by every VDA5050 message struct. The header is
// exposed mutably so the publishing client can stamp it just before the
// message goes out.
type Message interface {
	MessageType() Type
	MessageHeader() *Header
	Validate() error
}

// New returns a zero-value message of the given type, ready to be decoded
// into.
func New(t Type) (Message, error) {
	switch t {
	case TypeOrder:
		return &Order{}, nil
	case TypeInstantActions:
		return &InstantActions{}, nil
	case TypeState:
		return &State{}, nil
	case TypeVisualization:
		return &Visualization{}, nil
	case TypeConnection:
		return &Connection{}, nil
	case TypeFactsheet:
		return &Factsheet{}, nil
	default:
		return nil, fmt.Errorf("message type %q: %w", t, errors.ErrUnknownMessageType)
	}
}

// Decode parses a JSON payload into the typed message for t. The header and
// body are structurally validated; schema validation, when enabled, is a
// separate concern of the client.
func Decode(t Type, data []byte) (Message, error) {
	m, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%s payload: %v: %w", t, err, errors.ErrDecodeFailed)
	}
	if err := m.MessageHeader().validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode marshals a message to its JSON wire format.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WrapInternal(err, "message", "Encode", "marshal "+string(m.MessageType()))
	}
	return data, nil
}
