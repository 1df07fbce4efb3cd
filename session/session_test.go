package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/metric"
	"github.com/zeki-aitech/vda5050-client/pkg/retry"
	"github.com/zeki-aitech/vda5050-client/transport"
)

const (
	orderTopic = "uagv/v2/acme/agv-1/order"
	stateTopic = "uagv/v2/acme/agv-1/state"
)

// newTestSession builds a session on the in-process broker with a fast,
// deterministic reconnect backoff.
func newTestSession(t *testing.T, broker *transport.Broker, opts ...Option) (*Session, *transport.Memory) {
	t.Helper()

	tr := broker.Client(transport.Options{ClientID: "session-" + t.Name()})
	base := []Option{
		WithBackoff(retry.Config{
			InitialDelay: 5 * time.Millisecond,
			MaxDelay:     20 * time.Millisecond,
			Multiplier:   2.0,
		}),
		WithConnectTimeout(time.Second),
		WithDisconnectQuiesce(0),
	}
	s, err := New(tr, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, tr
}

// publishVia sends one message through a short-lived broker client.
func publishVia(t *testing.T, broker *transport.Broker, topic, payload string) {
	t.Helper()

	ctx := context.Background()
	pub := broker.Client(transport.Options{ClientID: "pub-" + t.Name()})
	require.NoError(t, pub.Connect(ctx))
	require.NoError(t, pub.Publish(ctx, topic, transport.QoSAtLeastOnce, false, []byte(payload)))
	pub.Disconnect(0)
}

func TestSession_ConnectIdempotent(t *testing.T) {
	broker := transport.NewBroker()
	s, tr := newTestSession(t, broker)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, StatusConnected, s.Status())

	require.NoError(t, s.Connect(ctx), "second connect is a no-op")
	assert.Equal(t, StatusConnected, s.Status())
	assert.True(t, tr.IsConnected())
}

func TestSession_ConnectConcurrent(t *testing.T) {
	broker := transport.NewBroker()
	s, _ := newTestSession(t, broker)
	ctx := context.Background()

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Connect(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, StatusConnected, s.Status())
}

func TestSession_PublishRequiresConnected(t *testing.T) {
	broker := transport.NewBroker()
	s, _ := newTestSession(t, broker)

	err := s.Publish(context.Background(), stateTopic, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err), "not-connected must be retryable: %v", err)
	assert.ErrorIs(t, err, errors.ErrNotConnected)
}

func TestSession_PublishAndReceive(t *testing.T) {
	broker := transport.NewBroker()
	s, _ := newTestSession(t, broker)
	ctx := context.Background()

	got := make(chan string, 1)
	require.NoError(t, s.Handle(orderTopic, func(_ string, payload []byte) {
		got <- string(payload)
	}))
	require.NoError(t, s.Connect(ctx))

	publishVia(t, broker, orderTopic, `{"orderId":"o-1"}`)

	select {
	case payload := <-got:
		assert.JSONEq(t, `{"orderId":"o-1"}`, payload)
	case <-time.After(time.Second):
		t.Fatal("message was not dispatched")
	}
}

func TestSession_PublishRetained(t *testing.T) {
	broker := transport.NewBroker()
	s, _ := newTestSession(t, broker)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Publish(ctx, stateTopic, []byte(`ONLINE`), WithRetained(true), WithQoS(transport.QoSAtLeastOnce)))

	stored, ok := broker.Retained(stateTopic)
	require.True(t, ok, "retained publish must be stored by the broker")
	assert.Equal(t, "ONLINE", string(stored))
}

func TestSession_ObserverOrder(t *testing.T) {
	broker := transport.NewBroker()
	s, _ := newTestSession(t, broker)

	var order []int
	s.OnConnect(func() { order = append(order, 1) })
	s.OnConnect(func() { order = append(order, 2) })
	s.OnConnect(func() { order = append(order, 3) })

	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, order, "observers run synchronously in registration order")
}

func TestSession_ReconnectAfterDrop(t *testing.T) {
	broker := transport.NewBroker()
	m := metric.NewClientMetrics()
	s, tr := newTestSession(t, broker, WithMetrics(m))
	ctx := context.Background()

	got := make(chan string, 1)
	require.NoError(t, s.Handle(orderTopic, func(_ string, payload []byte) {
		got <- string(payload)
	}))

	lost := make(chan error, 1)
	s.OnDisconnect(func(err error) { lost <- err })
	reconnected := make(chan struct{}, 1)
	s.OnReconnect(func() { reconnected <- struct{}{} })

	require.NoError(t, s.Connect(ctx))

	broker.Drop(tr)

	select {
	case err := <-lost:
		assert.ErrorIs(t, err, errors.ErrConnectionLost)
	case <-time.After(time.Second):
		t.Fatal("OnDisconnect observer did not run")
	}

	select {
	case <-reconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not reconnect")
	}
	assert.Equal(t, StatusConnected, s.Status())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Reconnects))

	// Filters are resubscribed, so delivery works again.
	publishVia(t, broker, orderTopic, `after-reconnect`)
	select {
	case payload := <-got:
		assert.Equal(t, "after-reconnect", payload)
	case <-time.After(time.Second):
		t.Fatal("handler did not fire after reconnect")
	}
}

func TestSession_ReconnectSurvivesRepeatedDrops(t *testing.T) {
	broker := transport.NewBroker()
	m := metric.NewClientMetrics()
	s, tr := newTestSession(t, broker, WithMetrics(m))
	ctx := context.Background()

	reconnected := make(chan struct{}, 4)
	s.OnReconnect(func() { reconnected <- struct{}{} })

	require.NoError(t, s.Connect(ctx))

	for i := 0; i < 3; i++ {
		broker.Drop(tr)
		select {
		case <-reconnected:
		case <-time.After(2 * time.Second):
			t.Fatalf("session did not recover from drop %d", i+1)
		}
	}

	assert.Equal(t, StatusConnected, s.Status())
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Reconnects))
}

func TestSession_DisconnectIsReusable(t *testing.T) {
	broker := transport.NewBroker()
	s, tr := newTestSession(t, broker)
	ctx := context.Background()

	got := make(chan string, 1)
	require.NoError(t, s.Handle(orderTopic, func(_ string, payload []byte) {
		got <- string(payload)
	}))
	require.NoError(t, s.Connect(ctx))

	require.NoError(t, s.Disconnect())
	assert.Equal(t, StatusDisconnected, s.Status())
	assert.False(t, tr.IsConnected())
	require.NoError(t, s.Disconnect(), "second disconnect is a no-op")

	// Registrations survive, and the rollback window is open again.
	assert.Equal(t, []string{orderTopic}, s.Filters())
	require.NoError(t, s.Handle(stateTopic, func(string, []byte) {}))
	require.NoError(t, s.Unhandle(stateTopic))

	require.NoError(t, s.Connect(ctx))
	publishVia(t, broker, orderTopic, `after-disconnect`)
	select {
	case payload := <-got:
		assert.Equal(t, "after-disconnect", payload)
	case <-time.After(time.Second):
		t.Fatal("handler did not fire after the second connect")
	}
}

func TestSession_DisconnectStopsReconnectLoop(t *testing.T) {
	broker := transport.NewBroker()
	s, tr := newTestSession(t, broker, WithBackoff(retry.Config{
		InitialDelay: time.Hour, // never fires; Disconnect must win
		MaxDelay:     time.Hour,
	}))
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	broker.Drop(tr)
	require.Equal(t, StatusReconnecting, s.Status())

	done := make(chan struct{})
	go func() {
		_ = s.Disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Disconnect did not stop the reconnect loop")
	}
	assert.Equal(t, StatusDisconnected, s.Status())

	// The session is not closed: it can connect again.
	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, StatusConnected, s.Status())
}

func TestSession_CloseIdempotent(t *testing.T) {
	broker := transport.NewBroker()
	s, tr := newTestSession(t, broker)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	assert.Equal(t, StatusDisconnected, s.Status())
	assert.False(t, tr.IsConnected())

	err := s.Connect(ctx)
	require.Error(t, err, "a closed session stays closed")
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrClientClosed)
}

func TestSession_CloseStopsReconnectLoop(t *testing.T) {
	broker := transport.NewBroker()
	s, tr := newTestSession(t, broker, WithBackoff(retry.Config{
		InitialDelay: time.Hour, // never fires; Close must win
		MaxDelay:     time.Hour,
	}))
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx))
	broker.Drop(tr)
	require.Equal(t, StatusReconnecting, s.Status())

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not stop the reconnect loop")
	}
	assert.Equal(t, StatusDisconnected, s.Status())
}

func TestSession_CloseDropsQueuedMessages(t *testing.T) {
	broker := transport.NewBroker()
	m := metric.NewClientMetrics()
	s, _ := newTestSession(t, broker, WithMetrics(m))
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Handle(orderTopic, func(string, []byte) {
		entered <- struct{}{}
		<-release
	}))
	require.NoError(t, s.Connect(ctx))

	pub := broker.Client(transport.Options{ClientID: "pub"})
	require.NoError(t, pub.Connect(ctx))
	for _, payload := range []string{"first", "second", "third"} {
		require.NoError(t, pub.Publish(ctx, orderTopic, transport.QoSAtLeastOnce, false, []byte(payload)))
	}

	// First message is in the handler; the other two sit in the queue.
	<-entered

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()

	// Close waits for the in-flight handler but drops the queued backlog.
	close(release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not finish")
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.MessagesDropped.WithLabelValues("session_closed")))
	assert.Equal(t, StatusDisconnected, s.Status())
}

func TestSession_NilTransport(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
