// Package message defines the six VDA5050 message types and their JSON wire
// format: order, instantActions, state, visualization, connection and
// factsheet.
//
// Every message struct embeds Header, so the protocol header fields serialize
// at the top level of the payload. The Message interface ties a struct to its
// Type, exposes the header for stamping, and provides structural validation.
//
// # Encoding and Decoding
//
// Decode dispatches on the message type, which on the wire is the final topic
// level:
//
//	m, err := message.Decode(message.TypeOrder, payload)
//	if err != nil {
//		return err
//	}
//	order := m.(*message.Order)
//
// Decode rejects payloads with a blank header or a structurally inconsistent
// body, such as an order whose edges reference unknown nodes. Schema
// validation against the protocol JSON schemas is stricter and lives in the
// validation package.
//
// # Timestamps
//
// The wire format is ISO 8601 UTC with millisecond precision
// ("2017-04-15T11:40:03.120Z"). Marshalling always produces that profile;
// unmarshalling accepts any RFC 3339 timestamp, since other vendor stacks
// vary in fraction digits and zone offsets.
//
// # Optional Fields
//
// Optional numeric and boolean fields are pointers, so zero values survive
// the round trip and absent fields stay absent. Required array fields, such
// as a state's nodeStates, marshal as empty arrays rather than null; the
// NewState constructor initializes them.
package message
