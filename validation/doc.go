// Package validation checks VDA5050 payloads against the protocol JSON
// schemas before they cross the wire.
//
// The six schemas (order, instantActions, state, visualization, connection,
// factsheet) are embedded in the binary and compiled once when a Validator
// is constructed. Validation is optional at the client level; when enabled,
// outbound messages are checked after encoding and inbound payloads are
// checked before decoding, so a malformed document never reaches a handler.
//
// # Usage
//
//	v, err := validation.New()
//	if err != nil {
//		return err
//	}
//	if err := v.Validate(message.TypeOrder, payload); err != nil {
//		// err carries every violation, sorted by field.
//	}
//
// All schema violations for a payload are collected into a single
// invalid-class error rather than failing on the first, which keeps
// rejected-message logs actionable.
//
// # Schema Access
//
// The raw schema documents are available through Schema, for callers that
// want to serve or export them:
//
//	raw, err := validation.Schema(message.TypeState)
package validation
