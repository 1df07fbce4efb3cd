// Package session manages one broker connection for a VDA5050 client:
// connection state, handler dispatch, and reconnection.
//
// # State Machine
//
// A session moves Disconnected -> Connecting -> Connected and bounces
// between Connected and Reconnecting as the broker link drops and recovers.
// Disconnect returns to Disconnected with the session still usable; Close is
// terminal. Status() is lock-free, so health checks can poll it freely.
//
// # Dispatch
//
// Handlers register before Connect with Handle(filter, fn). Inbound
// messages flow from the transport into an unbounded queue; a single
// dispatch goroutine drains it and runs handlers one at a time in arrival
// order. Exact topic matches win over wildcard filters, wildcard filters
// match in registration order, and a message nobody matches is dropped with
// a debug log and a counter increment. A panicking handler is recovered and
// counted; dispatch keeps going.
//
// # Reconnection
//
// The session owns reconnection, not the MQTT library. On connection loss
// it retries with capped exponential backoff (1s doubling to 60s, jittered)
// until the broker is back or Close is called. A successful reconnect
// resubscribes every filter and then runs the OnReconnect observers, which
// is where role clients replay their connect-time announcements.
//
// # Observers
//
// OnConnect, OnDisconnect and OnReconnect are synchronous ordered callback
// lists. They run on the session's goroutines, so observers must not block.
package session
