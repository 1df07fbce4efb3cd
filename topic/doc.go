// Package topic implements the VDA5050 MQTT topic scheme: building publish
// and subscription topics from a device identity, parsing concrete topics
// back into their components, and MQTT wildcard matching for local dispatch.
//
// # Topic Layout
//
// Every VDA5050 topic has exactly five levels:
//
//	interfaceName/vMajor/manufacturer/serialNumber/messageType
//
// for example:
//
//	uagv/v2/KIT/0001/order
//
// The version level carries only the protocol major version ("v2" for
// protocol 2.0.0). Manufacturer and serial number identify one device;
// masters subscribe with '+' in those levels to watch a whole fleet.
//
// # Usage
//
// Bind a Codec to a device identity once and derive topics from it:
//
//	codec, err := topic.NewCodec("uagv", "2.0.0", "KIT", "0001")
//	codec.PublishTopic("state")                  // uagv/v2/KIT/0001/state
//	codec.TargetTopic("KIT", "0002", "order")    // uagv/v2/KIT/0002/order
//	codec.SubscriptionTopic("connection", "", "") // uagv/v2/+/+/connection
//
// Parse recovers the components of an inbound topic:
//
//	addr, err := topic.Parse("uagv/v2/KIT/0001/state")
//	// addr.SerialNumber == "0001", addr.MessageType == "state"
//
// Match applies MQTT wildcard semantics for client-side routing, so handlers
// registered on a filter receive exactly the messages the broker would route
// to that filter:
//
//	topic.Match("uagv/v2/+/+/state", "uagv/v2/KIT/0001/state") // true
//
// All functions are pure; Codec is immutable and safe for concurrent use.
package topic
