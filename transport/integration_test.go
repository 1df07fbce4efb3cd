//go:build integration

package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_PahoPublishSubscribe(t *testing.T) {
	tb := NewTestBroker(t)
	ctx := context.Background()

	sub := NewPaho(Options{URL: tb.URL, ClientID: "it-sub", ConnectTimeout: 5 * time.Second}, nil)

	var mu sync.Mutex
	var got []string
	sub.SetRouter(func(topic string, payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, topic+"="+string(payload))
	})

	require.NoError(t, sub.Connect(ctx))
	defer sub.Disconnect(100 * time.Millisecond)
	require.NoError(t, sub.Subscribe(ctx, "uagv/v2/acme/+/state", QoSAtLeastOnce))

	pub := NewPaho(Options{URL: tb.URL, ClientID: "it-pub", ConnectTimeout: 5 * time.Second}, nil)
	require.NoError(t, pub.Connect(ctx))
	defer pub.Disconnect(100 * time.Millisecond)

	require.NoError(t, pub.Publish(ctx, "uagv/v2/acme/agv-1/state", QoSAtLeastOnce, false, []byte(`{"x":1}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	assert.Equal(t, `uagv/v2/acme/agv-1/state={"x":1}`, got[0])
	mu.Unlock()
}

func TestIntegration_PahoRetained(t *testing.T) {
	tb := NewTestBroker(t)
	ctx := context.Background()

	pub := NewPaho(Options{URL: tb.URL, ClientID: "it-agv", ConnectTimeout: 5 * time.Second}, nil)
	require.NoError(t, pub.Connect(ctx))
	defer pub.Disconnect(100 * time.Millisecond)
	require.NoError(t, pub.Publish(ctx, "uagv/v2/acme/agv-1/connection", QoSAtLeastOnce, true, []byte(`ONLINE`)))

	// A subscriber that arrives later still receives the retained payload.
	sub := NewPaho(Options{URL: tb.URL, ClientID: "it-late", ConnectTimeout: 5 * time.Second}, nil)

	var mu sync.Mutex
	var got []string
	sub.SetRouter(func(_ string, payload []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
	})

	require.NoError(t, sub.Connect(ctx))
	defer sub.Disconnect(100 * time.Millisecond)
	require.NoError(t, sub.Subscribe(ctx, "uagv/v2/+/+/connection", QoSAtLeastOnce))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "ONLINE"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIntegration_PahoConnectionLostHandler(t *testing.T) {
	tb := NewTestBroker(t)
	ctx := context.Background()

	tr := NewPaho(Options{URL: tb.URL, ClientID: "it-lost", ConnectTimeout: 5 * time.Second}, nil)

	lost := make(chan error, 1)
	tr.SetConnectionHandlers(nil, func(err error) { lost <- err })

	require.NoError(t, tr.Connect(ctx))
	assert.True(t, tr.IsConnected())

	require.NoError(t, tb.Terminate())

	select {
	case err := <-lost:
		assert.Error(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("connection lost handler never fired")
	}
}
