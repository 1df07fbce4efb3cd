//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeki-aitech/vda5050-client/config"
	"github.com/zeki-aitech/vda5050-client/message"
	"github.com/zeki-aitech/vda5050-client/transport"
)

// brokeredConfig targets the containerized Mosquitto instead of the in-memory
// broker the unit tests use.
func brokeredConfig(url, manufacturer, serial string) *config.Config {
	cfg := config.Default()
	cfg.Broker.URL = url
	cfg.Identity.Manufacturer = manufacturer
	cfg.Identity.SerialNumber = serial
	cfg.Connection.ConnectTimeout = config.Duration(5 * time.Second)
	cfg.Connection.ReconnectInitialDelay = config.Duration(50 * time.Millisecond)
	cfg.Connection.ReconnectMaxDelay = config.Duration(500 * time.Millisecond)
	return cfg
}

func TestIntegration_AnnouncementLifecycle(t *testing.T) {
	tb := transport.NewTestBroker(t)
	ctx := context.Background()

	agv, err := NewAGV(brokeredConfig(tb.URL, "acme", "agv-it-1"))
	require.NoError(t, err)
	require.NoError(t, agv.Connect(ctx))
	t.Cleanup(func() { _ = agv.Disconnect(context.Background()) })

	// The master joins after the AGV announced; the retained connection
	// message must still reach it.
	master, err := NewMasterControl(brokeredConfig(tb.URL, "fleet", "master-it"))
	require.NoError(t, err)

	conns := make(chan message.ConnectionState, 8)
	require.NoError(t, master.OnConnection(func(man, ser string, c *message.Connection) {
		if man == "acme" && ser == "agv-it-1" {
			conns <- c.ConnectionState
		}
	}))
	require.NoError(t, master.Connect(ctx))
	t.Cleanup(func() { _ = master.Disconnect(context.Background()) })

	select {
	case st := <-conns:
		assert.Equal(t, message.ConnectionOnline, st)
	case <-time.After(5 * time.Second):
		t.Fatal("retained ONLINE announcement never arrived")
	}

	require.NoError(t, agv.Disconnect(ctx))

	select {
	case st := <-conns:
		assert.Equal(t, message.ConnectionOffline, st)
	case <-time.After(5 * time.Second):
		t.Fatal("OFFLINE announcement never arrived")
	}

	require.Eventually(t, func() bool {
		id := AGVID{Manufacturer: "acme", SerialNumber: "agv-it-1"}
		return master.Fleet()[id] == message.ConnectionOffline
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIntegration_OrderDispatchAndStateReport(t *testing.T) {
	tb := transport.NewTestBroker(t)
	ctx := context.Background()

	agv, err := NewAGV(brokeredConfig(tb.URL, "acme", "agv-it-2"))
	require.NoError(t, err)

	orders := make(chan *message.Order, 1)
	require.NoError(t, agv.OnOrder(func(_ context.Context, o *message.Order) {
		orders <- o
	}))
	require.NoError(t, agv.Connect(ctx))
	t.Cleanup(func() { _ = agv.Disconnect(context.Background()) })

	master, err := NewMasterControl(brokeredConfig(tb.URL, "fleet", "master-it"))
	require.NoError(t, err)

	states := make(chan *message.State, 4)
	require.NoError(t, master.OnState(func(man, ser string, s *message.State) {
		if ser == "agv-it-2" {
			states <- s
		}
	}))
	require.NoError(t, master.Connect(ctx))
	t.Cleanup(func() { _ = master.Disconnect(context.Background()) })

	require.NoError(t, master.SendOrder(ctx, "acme", "agv-it-2", testOrder("order-it-1")))

	var got *message.Order
	select {
	case got = <-orders:
	case <-time.After(5 * time.Second):
		t.Fatal("order never arrived at the AGV")
	}
	assert.Equal(t, "order-it-1", got.OrderID)
	assert.Equal(t, "acme", got.Manufacturer)
	assert.Equal(t, "agv-it-2", got.SerialNumber)

	st := testState()
	st.OrderID = got.OrderID
	require.NoError(t, agv.PublishState(ctx, st))

	select {
	case s := <-states:
		assert.Equal(t, "order-it-1", s.OrderID)
	case <-time.After(5 * time.Second):
		t.Fatal("state report never arrived at the master")
	}
}

func TestIntegration_FactsheetRetainedForLateJoiners(t *testing.T) {
	tb := transport.NewTestBroker(t)
	ctx := context.Background()

	agv, err := NewAGV(brokeredConfig(tb.URL, "acme", "agv-it-3"))
	require.NoError(t, err)
	require.NoError(t, agv.Connect(ctx))
	t.Cleanup(func() { _ = agv.Disconnect(context.Background()) })
	require.NoError(t, agv.PublishFactsheet(ctx, testFactsheet()))

	// No further publish happens; the late master must get the retained copy.
	master, err := NewMasterControl(brokeredConfig(tb.URL, "fleet", "master-it"))
	require.NoError(t, err)

	sheets := make(chan *message.Factsheet, 1)
	require.NoError(t, master.OnFactsheet(func(man, ser string, f *message.Factsheet) {
		if ser == "agv-it-3" {
			sheets <- f
		}
	}))
	require.NoError(t, master.Connect(ctx))
	t.Cleanup(func() { _ = master.Disconnect(context.Background()) })

	select {
	case f := <-sheets:
		assert.Equal(t, "tugger-x", f.TypeSpecification.SeriesName)
	case <-time.After(5 * time.Second):
		t.Fatal("retained factsheet never arrived")
	}
}
