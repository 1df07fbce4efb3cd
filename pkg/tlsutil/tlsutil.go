// Package tlsutil provides TLS configuration for broker connections.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// Config describes TLS settings for an MQTT broker connection.
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CAFiles are additional trusted CA certificates in PEM format.
	// The system CA bundle is always trusted.
	CAFiles []string `json:"ca_files,omitempty" yaml:"ca_files,omitempty"`

	// CertFile and KeyFile hold a client certificate for brokers that
	// require mutual TLS.
	CertFile string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty" yaml:"key_file,omitempty"`

	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`

	// MinVersion is "1.2" or "1.3". Empty or unknown values fall back
	// to 1.2.
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`
}

// ClientConfig creates a tls.Config for the broker connection.
// Returns nil when TLS is disabled. Always uses the system CA bundle
// first; CAFiles are additional trusted CAs.
func (c Config) ClientConfig() (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion: parseTLSVersion(c.MinVersion),
	}

	// Start with system CA pool
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		// If system pool unavailable, create empty pool
		rootCAs = x509.NewCertPool()
	}

	for _, caFile := range c.CAFiles {
		caPEM, err := os.ReadFile(caFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "ClientConfig",
				fmt.Sprintf("read CA file %s", caFile))
		}
		if !rootCAs.AppendCertsFromPEM(caPEM) {
			return nil, errors.WrapFatal(
				fmt.Errorf("invalid PEM data"),
				"tlsutil",
				"ClientConfig",
				fmt.Sprintf("parse CA certificate from %s", caFile),
			)
		}
	}

	tlsConfig.RootCAs = rootCAs

	if c.CertFile != "" || c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "ClientConfig",
				"load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	// Note: Setting this is intentional via config - operators know the
	// security implications
	if c.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	return tlsConfig, nil
}

// parseTLSVersion converts version string to crypto/tls constant.
// Returns tls.VersionTLS12 if empty or invalid.
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	case "1.2":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS12 // Safe default
	}
}
