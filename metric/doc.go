// Package metric provides Prometheus-based metrics collection for VDA5050
// clients.
//
// The package offers a registry owning a dedicated Prometheus registry (never
// the global default), a pre-registered client instrument set, and an HTTP
// endpoint exposing metrics in Prometheus exposition format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Client instruments: the ClientMetrics set recorded by the session and
//     role clients (message flow, validation failures, reconnects).
//  2. Component registry: extensible registration for component-specific
//     metrics through the Registrar interface.
//  3. HTTP exposure: Registry.Handler for mounting on an existing mux, or
//     Server for a standalone endpoint with a health check.
//
// # Basic Usage
//
//	registry := metric.NewRegistry()
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	// Hand the instrument set to a client.
//	metrics := registry.ClientMetrics()
//	metrics.RecordPublished("state")
//	metrics.SetConnectionState(2)
//
// # Client Instruments
//
// The pre-registered instrument set covers:
//
//   - vda5050_messages_published_total{message_type}
//   - vda5050_messages_received_total{message_type}
//   - vda5050_messages_dropped_total{reason}
//   - vda5050_validation_failures_total{message_type, direction}
//   - vda5050_reconnects_total
//   - vda5050_handler_panics_total
//   - vda5050_inbound_queue_depth
//   - vda5050_connection_state
//
// All Record/Set methods are nil-safe: a nil *ClientMetrics is a no-op, so
// metrics stay optional throughout the client.
//
// # Component Metrics
//
// Components register their own metrics through the Registrar interface:
//
//	depth := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Name: "vda5050_queue_depth",
//	    Help: "Current depth of the dispatch queue",
//	})
//	err := registry.RegisterGauge("session", "queue_depth", depth)
//
// Registration rejects duplicates at both the registry level (same
// component and name) and the Prometheus level (same fully qualified
// metric name).
//
// # Thread Safety
//
// All registry operations are safe for concurrent use. Metric recording is
// lock-free per the Prometheus client guarantees.
package metric
