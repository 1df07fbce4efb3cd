// Package transport is the MQTT connection layer of the VDA5050 client.
//
// The Transport interface is narrow: connect, disconnect, publish,
// subscribe, and one inbound router. Everything stateful about a
// VDA5050 connection, from reconnect backoff to handler dispatch, lives in
// the session package on top of this interface.
//
// # Implementations
//
// Paho wraps eclipse/paho.mqtt.golang for real brokers. Its auto reconnect
// is disabled; on connection loss it reports through the lost handler and
// waits for the session to call Connect again. Wills, TLS, credentials and
// keep-alive come from Options.
//
// Memory attaches to an in-process Broker that honors retained messages and
// wildcard filters. Unit tests and offline demos use it to run a full
// AGV/master-control exchange without a network. Broker.Drop simulates a
// dead network path: the will fires and the lost handler runs, exactly the
// sequence a real broker produces.
//
// # Integration Tests
//
// TestBroker starts a disposable Mosquitto container for integration tests:
//
//	tb := transport.NewTestBroker(t)
//	tr := transport.NewPaho(transport.Options{URL: tb.URL, ClientID: "test"}, nil)
package transport
