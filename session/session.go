package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/metric"
	"github.com/zeki-aitech/vda5050-client/pkg/buffer"
	"github.com/zeki-aitech/vda5050-client/pkg/retry"
	"github.com/zeki-aitech/vda5050-client/transport"
)

// Status represents the state of the broker session.
type Status int

// Possible session statuses. The numeric values feed the connection state
// gauge, so their order is part of the metrics contract.
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// inbound is one message handed over by the transport, queued for dispatch.
type inbound struct {
	topic   string
	payload []byte
}

// Session owns one broker connection: handler dispatch, connection state,
// and the reconnect loop. Role clients build on it; they never talk to the
// transport directly.
type Session struct {
	tr      transport.Transport
	logger  *slog.Logger
	metrics *metric.ClientMetrics
	opts    *sessionOptions

	status atomic.Value // stores Status

	// Handler registries and observer lists
	mu        sync.RWMutex
	exact     map[string]Handler
	wildcards []wildcardEntry
	filters   []string // every registered filter, in registration order

	onConnect    []func()
	onDisconnect []func(error)
	onReconnect  []func()

	// Inbound dispatch
	queue        *buffer.Queue[inbound]
	dispatchOnce sync.Once

	// Lifecycle
	connectMu    sync.Mutex // single-flight Connect and Disconnect
	closeMu      sync.Mutex
	closed       atomic.Bool
	reconnecting atomic.Bool
	done         chan struct{} // guarded by closeMu; closed to stop the reconnect loop
	wg           sync.WaitGroup
	reconnectWG  sync.WaitGroup
}

// New creates a session on top of a transport. The session installs itself
// as the transport's router and connection handler, so both must be unset.
func New(tr transport.Transport, options ...Option) (*Session, error) {
	if tr == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil transport"),
			"Session", "New", "validate transport")
	}

	opts := applyOptions(options...)

	s := &Session{
		tr:      tr,
		logger:  opts.logger,
		metrics: opts.metrics,
		opts:    opts,
		exact:   make(map[string]Handler),
		done:    make(chan struct{}),
	}
	s.status.Store(StatusDisconnected)

	queue, err := buffer.NewQueue[inbound](
		buffer.WithDropCallback[inbound](func(msg inbound) {
			s.metrics.RecordDropped("session_closed")
			s.logger.Debug("dropped queued message on close", "topic", msg.topic)
		}),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "Session", "New", "create inbound queue")
	}
	s.queue = queue

	tr.SetRouter(s.route)
	tr.SetConnectionHandlers(
		func() { s.logger.Debug("transport reported connect") },
		s.handleConnectionLost,
	)

	return s, nil
}

// Status returns the current session status. Lock-free.
func (s *Session) Status() Status {
	val := s.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(Status)
}

// setStatus updates the status and the connection state gauge together.
func (s *Session) setStatus(status Status) {
	s.status.Store(status)
	s.metrics.SetConnectionState(int(status))
}

// Connect establishes the broker connection and subscribes every registered
// filter. It is idempotent: when the session is already connected it returns
// nil, and a concurrent call waits for the in-flight attempt to finish.
func (s *Session) Connect(ctx context.Context) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "Session", "Connect", "session closed")
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	// A concurrent caller that waited here sees the first call's outcome.
	if s.Status() == StatusConnected {
		return nil
	}
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrClientClosed, "Session", "Connect", "session closed")
	}

	// Transition and snapshot filters in one critical section so handler
	// registration cannot slip between the two.
	s.mu.Lock()
	s.setStatus(StatusConnecting)
	filters := make([]string, len(s.filters))
	copy(filters, s.filters)
	s.mu.Unlock()

	if err := s.tr.Connect(ctx); err != nil {
		s.setStatus(StatusDisconnected)
		return errors.WrapTransient(err, "Session", "Connect", "broker connect")
	}

	if err := s.subscribeAll(ctx, filters); err != nil {
		s.tr.Disconnect(0)
		s.setStatus(StatusDisconnected)
		return err
	}

	// Close may have landed while the broker handshake was in flight.
	if !s.startDispatch() {
		s.tr.Disconnect(0)
		s.setStatus(StatusDisconnected)
		return errors.WrapInvalid(errors.ErrClientClosed, "Session", "Connect", "session closed")
	}

	s.setStatus(StatusConnected)
	s.logger.Info("session connected", "filters", len(filters))
	s.notifyConnect()

	return nil
}

// subscribeAll subscribes the given filters in order. All subscriptions use
// QoS 1; the effective delivery QoS of any message is capped by its publish
// QoS, so visualization still arrives at most once.
func (s *Session) subscribeAll(ctx context.Context, filters []string) error {
	for _, filter := range filters {
		if err := s.tr.Subscribe(ctx, filter, transport.QoSAtLeastOnce); err != nil {
			return errors.WrapTransient(err, "Session", "Connect", fmt.Sprintf("subscribe %s", filter))
		}
	}
	return nil
}

// startDispatch launches the single dispatch goroutine on first connect.
// Returns false when the session closed in the meantime.
func (s *Session) startDispatch() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.dispatchOnce.Do(func() {
		s.wg.Add(1)
		go s.dispatchLoop()
	})
	return true
}

// Publish sends payload to a topic. It fails fast unless the session is
// Connected; callers that want delivery across a reconnect retry on the
// transient error. Defaults to QoS 1, not retained.
func (s *Session) Publish(ctx context.Context, topic string, payload []byte, options ...PublishOption) error {
	if s.Status() != StatusConnected {
		return errors.WrapTransient(errors.ErrNotConnected, "Session", "Publish", "publish to "+topic)
	}

	opts := applyPublishOptions(options...)
	if err := s.tr.Publish(ctx, topic, opts.qos, opts.retained, payload); err != nil {
		return errors.WrapTransient(err, "Session", "Publish", "publish to "+topic)
	}
	return nil
}

// OnConnect registers an observer invoked after every successful Connect
// call. Observers run synchronously in registration order on the connecting
// goroutine, so they should return quickly.
func (s *Session) OnConnect(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = append(s.onConnect, fn)
}

// OnDisconnect registers an observer invoked when the broker connection is
// lost. It does not run on Close. Observers run synchronously in
// registration order.
func (s *Session) OnDisconnect(fn func(error)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = append(s.onDisconnect, fn)
}

// OnReconnect registers an observer invoked after an automatic reconnection
// has restored the connection and resubscribed all filters. Role clients use
// it to replay connect-time announcements.
func (s *Session) OnReconnect(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReconnect = append(s.onReconnect, fn)
}

func (s *Session) notifyConnect() {
	s.mu.RLock()
	observers := make([]func(), len(s.onConnect))
	copy(observers, s.onConnect)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn()
	}
}

func (s *Session) notifyDisconnect(err error) {
	s.mu.RLock()
	observers := make([]func(error), len(s.onDisconnect))
	copy(observers, s.onDisconnect)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(err)
	}
}

func (s *Session) notifyReconnect() {
	s.mu.RLock()
	observers := make([]func(), len(s.onReconnect))
	copy(observers, s.onReconnect)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn()
	}
}

// handleConnectionLost runs on the transport's goroutine when the broker
// connection drops. It starts the reconnect loop; only one loop runs at a
// time no matter how many loss events the transport reports.
func (s *Session) handleConnectionLost(err error) {
	if s.closed.Load() {
		return
	}
	if !s.reconnecting.CompareAndSwap(false, true) {
		return
	}

	// The status check, transition, and stop-channel capture happen under
	// closeMu so a concurrent Disconnect or Close cannot interleave. A loss
	// report arriving after a graceful disconnect is stale and ignored.
	s.closeMu.Lock()
	if s.closed.Load() || s.Status() == StatusDisconnected {
		s.closeMu.Unlock()
		s.reconnecting.Store(false)
		return
	}
	s.setStatus(StatusReconnecting)
	done := s.done
	s.reconnectWG.Add(1)
	s.closeMu.Unlock()

	s.logger.Warn("broker connection lost", "error", err)
	s.notifyDisconnect(err)

	go s.reconnectLoop(done)
}

// reconnectLoop retries the broker connection with capped exponential
// backoff until it succeeds or the session disconnects. done is the stop
// channel current when the loop started; Disconnect and Close close it. On
// success the loop resubscribes every filter and replays announcements via
// the OnReconnect observers.
func (s *Session) reconnectLoop(done <-chan struct{}) {
	defer s.reconnectWG.Done()

	backoff := retry.NewBackoff(s.opts.backoff)

	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(backoff.Next())
		select {
		case <-done:
			timer.Stop()
			s.reconnecting.Store(false)
			return
		case <-timer.C:
		}

		s.logger.Info("reconnect attempt", "attempt", attempt)

		if s.tryReconnect(attempt, done) {
			return
		}
	}
}

// tryReconnect performs one reconnect attempt. Returns true when the session
// is Connected again or has been stopped, false to keep retrying.
func (s *Session) tryReconnect(attempt int, done <-chan struct{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.connectTimeout)
	defer cancel()

	if err := s.tr.Connect(ctx); err != nil {
		s.logger.Warn("reconnect failed", "attempt", attempt, "error", err)
		return false
	}

	// Disconnect or Close may have run while the connect attempt was in
	// flight; the restored connection is not wanted anymore.
	stopped := s.closed.Load()
	if !stopped {
		select {
		case <-done:
			stopped = true
		default:
		}
	}
	if stopped {
		s.tr.Disconnect(0)
		s.reconnecting.Store(false)
		return true
	}

	s.mu.RLock()
	filters := make([]string, len(s.filters))
	copy(filters, s.filters)
	s.mu.RUnlock()

	for _, filter := range filters {
		if err := s.tr.Subscribe(ctx, filter, transport.QoSAtLeastOnce); err != nil {
			s.logger.Warn("resubscribe failed, dropping connection",
				"attempt", attempt, "filter", filter, "error", err)
			s.tr.Disconnect(0)
			return false
		}
	}

	s.setStatus(StatusConnected)
	s.metrics.RecordReconnect()
	s.logger.Info("session reconnected", "attempt", attempt, "filters", len(filters))

	// The loop's work ends once the connection is restored. A loss during
	// observer replay must start a fresh loop, so the flag clears first.
	s.reconnecting.Store(false)

	s.notifyReconnect()

	return true
}

// Disconnect drops the broker connection and returns the session to
// Disconnected while keeping it usable: registered handlers stay, the
// dispatch queue keeps draining, and Connect works again. Any running
// reconnect loop stops. The client uses it to roll back a partially
// completed connect. Idempotent.
func (s *Session) Disconnect() error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	if s.closed.Load() {
		return nil
	}

	s.closeMu.Lock()
	if s.Status() == StatusDisconnected {
		s.closeMu.Unlock()
		return nil
	}
	// Stop the current reconnect loop, if any, and rearm for the next
	// connection. The status flips inside the same critical section so a
	// racing loss report sees Disconnected and stands down.
	close(s.done)
	s.done = make(chan struct{})
	s.setStatus(StatusDisconnected)
	s.closeMu.Unlock()

	// A loop already past its stop check may briefly restore the connection;
	// wait it out, then take the transport down for good.
	s.reconnectWG.Wait()
	s.tr.Disconnect(s.opts.quiesce)
	s.setStatus(StatusDisconnected)

	s.logger.Info("session disconnected")

	return nil
}

// Close shuts the session down: the reconnect loop stops, queued inbound
// messages are dropped, and the transport disconnects. Close publishes
// nothing; a graceful protocol farewell is the client's job before calling
// it. Idempotent.
func (s *Session) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed.Load() {
		return nil
	}
	s.closed.Store(true)
	close(s.done)

	s.queue.Close()
	s.tr.Disconnect(s.opts.quiesce)
	s.wg.Wait()
	s.reconnectWG.Wait()

	s.setStatus(StatusDisconnected)
	s.logger.Info("session closed",
		"dropped", s.queue.Stats().Drops(),
		"dispatched", s.queue.Stats().Dequeues())

	return nil
}
