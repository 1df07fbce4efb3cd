// Package vda5050client implements the VDA 5050 communication interface for
// driverless transport vehicles over MQTT, for both sides of the protocol:
// the vehicle (AGV) and the fleet master (master control).
//
// # Protocol
//
// VDA 5050 runs entirely over MQTT topics of the form
//
//	{interfaceName}/v{majorVersion}/{manufacturer}/{serialNumber}/{messageType}
//
// with six message types: order and instantActions flow from master to
// vehicle; state, visualization, connection and factsheet flow from vehicle
// to master. Every payload carries the same envelope header (headerId,
// timestamp, version, manufacturer, serialNumber). Vehicle availability is
// announced on the retained connection topic, with an MQTT last-will message
// turning unexpected disconnects into a retained CONNECTIONBROKEN marker.
//
// # Architecture
//
// The module is layered so each concern can be tested against an in-memory
// stand-in of the layer below:
//
//	┌─────────────────────────────────────┐
//	│        client (AGV, Master)         │  Role surfaces, callbacks,
//	│   announcements, fleet tracking     │  headerId stamping
//	└─────────────────────────────────────┘
//	           ↓ publishes/subscribes via
//	┌─────────────────────────────────────┐
//	│             session                 │  Connect/reconnect state
//	│  (status, backoff, resubscribe,     │  machine, ordered dispatch,
//	│   topic routing, inbound queue)     │  encode/decode + validation
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│            transport                │  Paho MQTT client or the
//	│      (Paho MQTT, Memory broker)     │  in-memory test broker
//	└─────────────────────────────────────┘
//
// The session owns reconnection: the Paho transport is configured without
// auto-reconnect so that resubscription, backoff and the ONLINE
// re-announcement stay in one place and behave identically over the memory
// transport.
//
// # Packages
//
// Protocol surface:
//   - client: AGV and MasterControl role clients
//   - message: the six payload types, envelope header, structural validation
//   - topic: topic building, parsing, wildcard matching
//   - validation: JSON schema validation of inbound and outbound payloads
//
// Runtime:
//   - session: connection lifecycle, subscription routing, ordered dispatch
//   - transport: MQTT abstraction, Paho implementation, in-memory broker
//   - config: file/env configuration with validation
//
// Infrastructure:
//   - errors: classified errors (transient, invalid, fatal, internal) and sentinels
//   - logging: slog setup and component loggers
//   - metric: Prometheus registry, client instruments, scrape endpoint
//   - pkg/buffer: unbounded FIFO queue behind the dispatch loop
//   - pkg/retry: backoff policies for the reconnect loop
//   - pkg/tlsutil: broker TLS configuration
//
// # Vehicle Usage
//
//	cfg := config.Default()
//	cfg.Broker.URL = "tcp://broker:1883"
//	cfg.Identity.Manufacturer = "acme"
//	cfg.Identity.SerialNumber = "agv-1"
//
//	agv, err := client.NewAGV(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	agv.OnOrder(func(ctx context.Context, o *message.Order) {
//		// drive the order graph
//	})
//	if err := agv.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer agv.Disconnect(ctx) // announces OFFLINE
//
//	st := message.NewState()
//	st.OperatingMode = message.OperatingModeAutomatic
//	st.SafetyState = message.SafetyState{EStop: message.EStopNone}
//	agv.PublishState(ctx, st)
//
// Connect announces ONLINE (retained) and arms the CONNECTIONBROKEN last
// will; Disconnect announces OFFLINE before closing. Between them the
// session reconnects on its own and replays the announcement and factsheet.
//
// # Master Usage
//
//	mc, err := client.NewMasterControl(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mc.OnState(func(manufacturer, serial string, s *message.State) {
//		// track order progress
//	})
//	mc.OnConnection(func(manufacturer, serial string, c *message.Connection) {
//		// fleet availability, also mirrored in mc.Fleet()
//	})
//	if err := mc.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	mc.SendOrder(ctx, "acme", "agv-1", order)
//
// The master subscribes with wildcards and sees every vehicle on the
// interface. Retained connection messages rebuild the fleet map immediately
// after Connect, including vehicles that announced long before.
//
// Callbacks must be registered before Connect; the subscription set is fixed
// once the client is live.
//
// # Binaries
//
// Two demo binaries exercise the module end to end against a real broker:
//
//	# simulated vehicle: accepts orders, drives them, reports state
//	go run ./cmd/agv-sim --broker=tcp://localhost:1883 --serial=agv-1
//
//	# fleet monitor: connection table plus periodic demo orders
//	go run ./cmd/master-control --target-serial=agv-1
//
// # Conformance
//
// Message semantics follow VDA 5050 version 2.x: headerIds count per topic,
// timestamps are UTC with millisecond precision, connection and factsheet
// messages are retained at QoS 1, visualization is fire-and-forget at QoS 0,
// and subscriptions use QoS 1 for everything except visualization.
package vda5050client
