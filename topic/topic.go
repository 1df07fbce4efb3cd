// Package topic implements the VDA5050 MQTT topic scheme.
package topic

import (
	"fmt"
	"strings"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Topic layout: interfaceName/vMajor/manufacturer/serialNumber/messageType
const segmentCount = 5

// Wildcard levels as used in subscription filters.
const (
	SingleLevelWildcard = "+"
	MultiLevelWildcard  = "#"
)

// The message-type segment is a closed set; VDA 5050 names six topics.
var messageTypes = map[string]bool{
	"order":          true,
	"instantActions": true,
	"state":          true,
	"visualization":  true,
	"connection":     true,
	"factsheet":      true,
}

// Address is a fully resolved VDA5050 topic, one concrete device and one
// message type. The Version field carries the topic form of the protocol
// major version ("v2"), not the full semver.
type Address struct {
	InterfaceName string
	Version       string
	Manufacturer  string
	SerialNumber  string
	MessageType   string
}

// String renders the address as its wire topic.
func (a Address) String() string {
	return a.InterfaceName + "/" + a.Version + "/" + a.Manufacturer + "/" + a.SerialNumber + "/" + a.MessageType
}

// Validate checks that every segment is present, wildcard-free and does not
// embed a level separator, that the version segment has the v<digits> form,
// and that the message type is one of the six VDA 5050 message types.
func (a Address) Validate() error {
	segments := []struct {
		name  string
		value string
	}{
		{"interface name", a.InterfaceName},
		{"version", a.Version},
		{"manufacturer", a.Manufacturer},
		{"serial number", a.SerialNumber},
		{"message type", a.MessageType},
	}
	for _, s := range segments {
		if s.value == "" {
			return fmt.Errorf("empty %s segment: %w", s.name, errors.ErrInvalidTopic)
		}
		if strings.Contains(s.value, "/") {
			return fmt.Errorf("%s segment %q contains level separator: %w", s.name, s.value, errors.ErrInvalidTopic)
		}
		if strings.ContainsAny(s.value, "+#") {
			return fmt.Errorf("%s segment %q contains wildcard: %w", s.name, s.value, errors.ErrWildcardInPublish)
		}
	}
	if !isVersionSegment(a.Version) {
		return fmt.Errorf("version segment %q is not of form v<major>: %w", a.Version, errors.ErrInvalidTopic)
	}
	if !messageTypes[a.MessageType] {
		return fmt.Errorf("message type segment %q: %w", a.MessageType, errors.ErrUnknownMessageType)
	}
	return nil
}

// New builds a validated Address for one device and message type.
// protocolVersion is the full protocol version ("2.0.0"); only its major
// lands in the topic.
func New(interfaceName, protocolVersion, manufacturer, serialNumber, messageType string) (Address, error) {
	version, err := versionSegment(protocolVersion)
	if err != nil {
		return Address{}, err
	}
	addr := Address{
		InterfaceName: interfaceName,
		Version:       version,
		Manufacturer:  manufacturer,
		SerialNumber:  serialNumber,
		MessageType:   messageType,
	}
	if err := addr.Validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Parse splits a concrete topic back into an Address. It accepts only
// five-segment topics with a v<digits> version and a known message type.
// Wildcards are rejected; filters are not addresses.
func Parse(topic string) (Address, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != segmentCount {
		return Address{}, fmt.Errorf("topic %q has %d segments, want %d: %w",
			topic, len(parts), segmentCount, errors.ErrInvalidTopic)
	}
	addr := Address{
		InterfaceName: parts[0],
		Version:       parts[1],
		Manufacturer:  parts[2],
		SerialNumber:  parts[3],
		MessageType:   parts[4],
	}
	if err := addr.Validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// isVersionSegment reports whether s is "v" followed by one or more digits.
func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// versionSegment derives the topic version segment from a protocol version
// string: "2.0.0" and "2" become "v2". A leading "v" is tolerated.
func versionSegment(protocolVersion string) (string, error) {
	v := strings.TrimPrefix(protocolVersion, "v")
	major, _, _ := strings.Cut(v, ".")
	seg := "v" + major
	if !isVersionSegment(seg) {
		return "", fmt.Errorf("protocol version %q has no numeric major: %w",
			protocolVersion, errors.ErrInvalidTopic)
	}
	return seg, nil
}

// Codec builds topics for one device identity on one VDA5050 interface.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	interfaceName string
	version       string // topic form, "v2"
	manufacturer  string
	serialNumber  string
}

// NewCodec binds a codec to a device identity. protocolVersion is the full
// protocol version ("2.0.0"); only its major lands in topics.
func NewCodec(interfaceName, protocolVersion, manufacturer, serialNumber string) (*Codec, error) {
	version, err := versionSegment(protocolVersion)
	if err != nil {
		return nil, err
	}
	c := &Codec{
		interfaceName: interfaceName,
		version:       version,
		manufacturer:  manufacturer,
		serialNumber:  serialNumber,
	}
	// A codec that cannot build a valid publish topic is misconfigured.
	probe := Address{
		InterfaceName: interfaceName,
		Version:       version,
		Manufacturer:  manufacturer,
		SerialNumber:  serialNumber,
		MessageType:   "connection",
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Version returns the topic version segment the codec was bound with.
func (c *Codec) Version() string { return c.version }

// InterfaceName returns the VDA5050 interface name the codec was bound with.
func (c *Codec) InterfaceName() string { return c.interfaceName }

// PublishTopic is the topic this device publishes the given message type to.
func (c *Codec) PublishTopic(messageType string) string {
	return c.join(c.manufacturer, c.serialNumber, messageType)
}

// TargetTopic addresses a specific other device on the same interface and
// version, as a master control does when sending orders to one AGV.
func (c *Codec) TargetTopic(manufacturer, serialNumber, messageType string) string {
	return c.join(manufacturer, serialNumber, messageType)
}

// SubscriptionTopic builds a subscription filter for the given message type.
// Empty manufacturer or serialNumber become single-level wildcards, so
// SubscriptionTopic("state", "", "") watches every device on the interface.
func (c *Codec) SubscriptionTopic(messageType, manufacturer, serialNumber string) string {
	if manufacturer == "" {
		manufacturer = SingleLevelWildcard
	}
	if serialNumber == "" {
		serialNumber = SingleLevelWildcard
	}
	return c.join(manufacturer, serialNumber, messageType)
}

func (c *Codec) join(manufacturer, serialNumber, messageType string) string {
	return c.interfaceName + "/" + c.version + "/" + manufacturer + "/" + serialNumber + "/" + messageType
}
