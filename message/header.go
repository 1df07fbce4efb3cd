package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Header carries the fields common to every VDA5050 message. It is embedded
// in each message struct so the fields serialize at the top level of the
// payload, as the protocol requires.
//
// The publishing client fills the header at publish time; receivers read it
// as delivered. HeaderID is counted per topic and restarts at zero when the
// sender restarts, which receivers must tolerate.
type Header struct {
	HeaderID     uint32    `json:"headerId"`
	Timestamp    Timestamp `json:"timestamp"`
	Version      string    `json:"version"`
	Manufacturer string    `json:"manufacturer"`
	SerialNumber string    `json:"serialNumber"`
}

// MessageHeader returns the embedded header. Promoted into every message
// struct, it satisfies half of the Message interface.
func (h *Header) MessageHeader() *Header { return h }

// Stamp fills the header for an outgoing message.
func (h *Header) Stamp(headerID uint32, version, manufacturer, serialNumber string, at time.Time) {
	h.HeaderID = headerID
	h.Timestamp = Timestamp{at}
	h.Version = version
	h.Manufacturer = manufacturer
	h.SerialNumber = serialNumber
}

// validate checks the header of a received message. A zero timestamp or a
// blank identity means the sender never stamped the message.
func (h *Header) validate() error {
	if h.Version == "" {
		return fmt.Errorf("header missing version: %w", errors.ErrInvalidMessage)
	}
	if h.Manufacturer == "" {
		return fmt.Errorf("header missing manufacturer: %w", errors.ErrInvalidMessage)
	}
	if h.SerialNumber == "" {
		return fmt.Errorf("header missing serialNumber: %w", errors.ErrInvalidMessage)
	}
	if h.Timestamp.IsZero() {
		return fmt.Errorf("header missing timestamp: %w", errors.ErrInvalidMessage)
	}
	return nil
}

// timestampLayout is the ISO 8601 profile VDA5050 uses on the wire:
// UTC with millisecond precision, e.g. "2017-04-15T11:40:03.120Z".
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp wraps time.Time with the VDA5050 wire format. Marshalling always
// produces UTC with millisecond precision; unmarshalling accepts any RFC 3339
// timestamp so messages from other stacks parse regardless of their fraction
// digits or zone offset.
type Timestamp struct {
	time.Time
}

// Now returns the current time as a wire timestamp.
func Now() Timestamp {
	return Timestamp{time.Now()}
}

// MarshalJSON renders the timestamp in the protocol profile.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON parses any RFC 3339 timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %v: %w", s, err, errors.ErrDecodeFailed)
	}
	t.Time = parsed
	return nil
}
