// Package client provides the two VDA5050 protocol roles on top of the
// session layer: AGV for vehicles and MasterControl for fleet managers.
//
// # Roles
//
// An AGV subscribes to the order and instantActions topics of its own
// identity and publishes state, visualization, factsheet, and connection.
// A MasterControl subscribes with wildcards to every AGV's state,
// connection, visualization, and factsheet, and sends orders and instant
// actions to individual vehicles.
//
// # Lifecycle
//
// Callbacks register before Connect. Connect subscribes, connects, and for
// AGVs announces a retained ONLINE; if any step fails the client rolls back
// to its pre-call state and the call can be retried. Lost connections
// reconnect automatically with backoff, resubscribing and replaying
// announcements. Disconnect announces a retained OFFLINE (AGVs), closes the
// session, and finishes the client for good.
//
// # Envelope
//
// Every outgoing message is stamped at publish time: a per-topic headerId
// starting at zero, a millisecond-UTC timestamp, and the protocol identity.
// Orders and instant actions a master sends carry the target AGV's
// manufacturer and serial number, as the protocol requires.
//
// # Validation
//
// With validation enabled (the default), payloads are checked against the
// embedded VDA5050 JSON schemas in both directions: a failing outbound
// message is not sent, a failing inbound message is dropped and counted
// before the role callback would run.
package client
