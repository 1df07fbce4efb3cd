// Testcontainers-based MQTT broker infrastructure for integration tests.
package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestBroker runs a disposable Mosquitto broker in a container. Integration
// tests across the module dial it like a production broker.
type TestBroker struct {
	container testcontainers.Container
	URL       string
	cleanup   func()
}

// testBrokerConfig holds configuration for the broker container.
type testBrokerConfig struct {
	version      string
	startTimeout time.Duration
}

// TestBrokerOption configures the broker container.
type TestBrokerOption func(*testBrokerConfig)

// WithBrokerVersion selects a specific Mosquitto image version.
func WithBrokerVersion(version string) TestBrokerOption {
	return func(cfg *testBrokerConfig) {
		cfg.version = version
	}
}

// WithBrokerStartTimeout sets the container startup timeout.
func WithBrokerStartTimeout(timeout time.Duration) TestBrokerOption {
	return func(cfg *testBrokerConfig) {
		cfg.startTimeout = timeout
	}
}

// NewTestBroker starts a Mosquitto container and registers cleanup with t.
// Accepts testing.TB so it works with both *testing.T and *testing.B.
func NewTestBroker(t testing.TB, opts ...TestBrokerOption) *TestBroker {
	t.Helper()

	cfg := &testBrokerConfig{
		version:      "2.0",
		startTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()

	// The official image ships a no-auth config for exactly this use.
	req := testcontainers.ContainerRequest{
		Image:        "eclipse-mosquitto:" + cfg.version,
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp").WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Mosquitto container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	tb := &TestBroker{
		container: container,
		URL:       fmt.Sprintf("tcp://%s:%s", host, port.Port()),
		cleanup: func() {
			_ = container.Terminate(context.Background()) // Best effort test cleanup
		},
	}

	t.Cleanup(tb.cleanup)
	return tb
}

// Terminate manually terminates the container (usually handled by t.Cleanup).
func (tb *TestBroker) Terminate() error {
	if tb.cleanup != nil {
		tb.cleanup()
		tb.cleanup = nil
	}
	return nil
}
