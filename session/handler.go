package session

import (
	"fmt"
	"strings"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/topic"
)

// Handler processes one inbound message. Handlers run on the session's
// dispatch goroutine, one at a time, in arrival order.
type Handler func(topic string, payload []byte)

// wildcardEntry pairs a wildcard filter with its handler. Entries keep
// registration order because dispatch picks the first match.
type wildcardEntry struct {
	filter string
	fn     Handler
}

// Handle registers fn for every message matching filter. Exact topics and
// wildcard filters live in separate registries: dispatch checks the exact
// map first, then wildcard filters in registration order, and the first
// match wins.
//
// Registration is only open while the session is Disconnected. Registering
// the same filter again replaces its handler.
func (s *Session) Handle(filter string, fn Handler) error {
	if fn == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil handler"),
			"Session", "Handle", fmt.Sprintf("register %s", filter))
	}
	if err := topic.ValidateFilter(filter); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed,
			"Session", "Handle", fmt.Sprintf("register %s", filter))
	}
	if s.Status() != StatusDisconnected {
		return errors.WrapInvalid(errors.ErrLateRegistration,
			"Session", "Handle", fmt.Sprintf("register %s", filter))
	}

	if isWildcardFilter(filter) {
		for i := range s.wildcards {
			if s.wildcards[i].filter == filter {
				s.wildcards[i].fn = fn
				return nil
			}
		}
		s.wildcards = append(s.wildcards, wildcardEntry{filter: filter, fn: fn})
	} else {
		if _, ok := s.exact[filter]; ok {
			s.exact[filter] = fn
			return nil
		}
		s.exact[filter] = fn
	}

	s.filters = append(s.filters, filter)
	return nil
}

// Unhandle removes previously registered filters. Like Handle it is only
// available while the session is Disconnected; clients use it to roll back
// a partially materialized registration. Unknown filters are ignored.
func (s *Session) Unhandle(filters ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "Session", "Unhandle", "remove filters")
	}
	if s.Status() != StatusDisconnected {
		return errors.WrapInvalid(errors.ErrLateRegistration, "Session", "Unhandle", "remove filters")
	}

	for _, filter := range filters {
		delete(s.exact, filter)
		for i := range s.wildcards {
			if s.wildcards[i].filter == filter {
				s.wildcards = append(s.wildcards[:i], s.wildcards[i+1:]...)
				break
			}
		}
		for i := range s.filters {
			if s.filters[i] == filter {
				s.filters = append(s.filters[:i], s.filters[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Filters returns the registered filters in registration order.
func (s *Session) Filters() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.filters))
	copy(out, s.filters)
	return out
}

// isWildcardFilter reports whether a filter contains MQTT wildcards.
func isWildcardFilter(filter string) bool {
	return strings.ContainsAny(filter, "+#")
}

// route is the transport's router: it queues the message for the dispatch
// goroutine and returns immediately, so the transport's delivery goroutine
// never blocks on a handler.
func (s *Session) route(t string, payload []byte) {
	if err := s.queue.Enqueue(inbound{topic: t, payload: payload}); err != nil {
		s.metrics.RecordDropped("session_closed")
		return
	}
	s.metrics.SetInboundQueueDepth(s.queue.Size())
}

// dispatchLoop drains the inbound queue until the session closes. It is the
// only goroutine that runs handlers, which serializes handler execution in
// arrival order.
func (s *Session) dispatchLoop() {
	defer s.wg.Done()

	for {
		msg, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		s.metrics.SetInboundQueueDepth(s.queue.Size())
		s.dispatch(msg)
	}
}

// dispatch finds the handler for a message and invokes it. Unmatched
// messages are dropped with a debug log and a counter increment.
func (s *Session) dispatch(msg inbound) {
	s.mu.RLock()
	fn, ok := s.exact[msg.topic]
	if !ok {
		for _, w := range s.wildcards {
			if topic.Match(w.filter, msg.topic) {
				fn, ok = w.fn, true
				break
			}
		}
	}
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug("no handler for inbound message", "topic", msg.topic)
		s.metrics.RecordDropped("no_handler")
		return
	}

	s.invoke(fn, msg.topic, msg.payload)
}

// invoke runs a handler with panic recovery. A panicking handler is logged
// and counted; the dispatch loop keeps going.
func (s *Session) invoke(fn Handler, t string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic in message handler", "topic", t, "panic", r)
			s.metrics.RecordHandlerPanic()
		}
	}()

	fn(t, payload)
}
