package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/pkg/tlsutil"
)

// Config is the complete client configuration: broker connection, VDA5050
// identity, connection tuning, and the ambient concerns (validation,
// logging, metrics).
type Config struct {
	Broker     Broker     `json:"broker" yaml:"broker"`
	Identity   Identity   `json:"identity" yaml:"identity"`
	Connection Connection `json:"connection,omitempty" yaml:"connection,omitempty"`
	Validation Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
	Logging    Logging    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Metrics    Metrics    `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Broker defines the MQTT broker connection settings.
type Broker struct {
	// URL is the broker address: tcp://, ssl://, ws:// or wss://.
	URL      string `json:"url" yaml:"url"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// KeepAlive is the MQTT keep-alive interval. The broker uses it to
	// detect a dead client and publish its will.
	KeepAlive Duration `json:"keep_alive,omitempty" yaml:"keep_alive,omitempty"`
	// CleanSession starts every connection with fresh broker-side state.
	// The client resubscribes on reconnect itself, so this stays true in
	// normal operation; set false only for broker interop testing.
	CleanSession bool           `json:"clean_session" yaml:"clean_session"`
	TLS          tlsutil.Config `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// Identity is the VDA5050 identity of this client. Interface name, protocol
// version, manufacturer and serial number together determine every topic
// the client publishes or subscribes to.
type Identity struct {
	InterfaceName string `json:"interface_name" yaml:"interface_name"`
	// Version is the full protocol version, e.g. "2.0.0". Only the major
	// number appears in topics.
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	SerialNumber string `json:"serial_number" yaml:"serial_number"`
}

// Connection tunes connection establishment and recovery.
type Connection struct {
	ConnectTimeout        Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
	ReconnectInitialDelay Duration `json:"reconnect_initial_delay,omitempty" yaml:"reconnect_initial_delay,omitempty"`
	ReconnectMaxDelay     Duration `json:"reconnect_max_delay,omitempty" yaml:"reconnect_max_delay,omitempty"`
}

// Validation controls JSON schema validation of payloads.
type Validation struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Logging selects the log level and output format.
type Logging struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Metrics configures the Prometheus scrape endpoint.
type Metrics struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a runnable configuration for a local broker: localhost
// MQTT, demo identity, validation on. Load starts from these values, so a
// config file only needs the fields it changes.
func Default() *Config {
	return &Config{
		Broker: Broker{
			URL:          "tcp://localhost:1883",
			KeepAlive:    Duration(60 * time.Second),
			CleanSession: true,
		},
		Identity: Identity{
			InterfaceName: "uagv",
			Version:       "2.0.0",
			Manufacturer:  "demo",
			SerialNumber:  "agv-1",
		},
		Connection: Connection{
			ConnectTimeout:        Duration(30 * time.Second),
			ReconnectInitialDelay: Duration(time.Second),
			ReconnectMaxDelay:     Duration(60 * time.Second),
		},
		Validation: Validation{Enabled: true},
		Logging:    Logging{Level: "info", Format: "text"},
		Metrics:    Metrics{Port: 9090, Path: "/metrics"},
	}
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the configuration and returns an invalid-class error
// naming the first offending field.
func (c *Config) Validate() error {
	if c.Broker.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "broker.url")
	}
	if !hasBrokerScheme(c.Broker.URL) {
		return errors.WrapInvalid(
			fmt.Errorf("url %q must start with tcp://, ssl://, ws:// or wss://", c.Broker.URL),
			"Config", "Validate", "broker.url")
	}

	if c.Identity.InterfaceName == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "identity.interface_name")
	}
	if c.Identity.Manufacturer == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "identity.manufacturer")
	}
	if c.Identity.SerialNumber == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "identity.serial_number")
	}

	// Identity values become topic levels, so topic separators and
	// wildcards inside them would corrupt every topic the client builds.
	for _, field := range []struct{ name, value string }{
		{"identity.interface_name", c.Identity.InterfaceName},
		{"identity.manufacturer", c.Identity.Manufacturer},
		{"identity.serial_number", c.Identity.SerialNumber},
	} {
		if !isTopicSafe(field.value) {
			return errors.WrapInvalid(
				fmt.Errorf("%q may not contain '/', '+', '#' or spaces", field.value),
				"Config", "Validate", field.name)
		}
	}

	if c.Identity.Version != "" && !versionPattern.MatchString(c.Identity.Version) {
		return errors.WrapInvalid(
			fmt.Errorf("version %q is not a full semantic version like \"2.0.0\"", c.Identity.Version),
			"Config", "Validate", "identity.version")
	}

	if err := c.validateConnection(); err != nil {
		return err
	}
	if err := c.validateTLS(); err != nil {
		return err
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(
			fmt.Errorf("port %d out of range", c.Metrics.Port),
			"Config", "Validate", "metrics.port")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("level %q is not debug, info, warn or error", c.Logging.Level),
			"Config", "Validate", "logging.level")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("format %q is not text or json", c.Logging.Format),
			"Config", "Validate", "logging.format")
	}

	return nil
}

func (c *Config) validateConnection() error {
	initial := c.Connection.ReconnectInitialDelay
	max := c.Connection.ReconnectMaxDelay
	if initial < 0 || max < 0 || c.Connection.ConnectTimeout < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("durations may not be negative"),
			"Config", "Validate", "connection")
	}
	if initial > 0 && max > 0 && max < initial {
		return errors.WrapInvalid(
			fmt.Errorf("reconnect_max_delay %v is below reconnect_initial_delay %v", max.Std(), initial.Std()),
			"Config", "Validate", "connection.reconnect_max_delay")
	}
	return nil
}

func (c *Config) validateTLS() error {
	tls := c.Broker.TLS
	if !tls.Enabled {
		return nil
	}

	if (tls.CertFile == "") != (tls.KeyFile == "") {
		return errors.WrapInvalid(
			fmt.Errorf("cert_file and key_file must be set together"),
			"Config", "Validate", "broker.tls")
	}

	for i, caFile := range tls.CAFiles {
		if _, err := os.Stat(caFile); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", fmt.Sprintf("broker.tls.ca_files[%d]", i))
		}
	}
	if tls.CertFile != "" {
		if _, err := os.Stat(tls.CertFile); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "broker.tls.cert_file")
		}
		if _, err := os.Stat(tls.KeyFile); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "broker.tls.key_file")
		}
	}

	if tls.InsecureSkipVerify {
		_, _ = fmt.Fprintln(os.Stderr,
			"WARNING: TLS certificate verification is disabled (insecure_skip_verify=true). Development use only!")
	}

	return nil
}

// hasBrokerScheme reports whether the URL carries a scheme Paho accepts.
func hasBrokerScheme(url string) bool {
	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// isTopicSafe reports whether a value can be used as one MQTT topic level.
func isTopicSafe(s string) bool {
	return !strings.ContainsAny(s, "/+# \t")
}
