package tlsutil

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTLSServer runs an httptest server with the given TLS settings.
func startTLSServer(t *testing.T, serverTLS *tls.Config, handler http.Handler) *httptest.Server {
	t.Helper()

	srv := httptest.NewUnstartedServer(handler)
	srv.TLS = serverTLS
	srv.StartTLS()
	t.Cleanup(srv.Close)

	return srv
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestClientConfig_TrustsConfiguredCA(t *testing.T) {
	certPEM, keyPEM := generateTestCert(t, "localhost")
	serverCert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))

	srv := startTLSServer(t, &tls.Config{Certificates: []tls.Certificate{serverCert}}, okHandler())

	tlsConfig, err := Config{Enabled: true, CAFiles: []string{caFile}}.ClientConfig()
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClientConfig_RejectsUnknownCA(t *testing.T) {
	certPEM, keyPEM := generateTestCert(t, "localhost")
	serverCert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	srv := startTLSServer(t, &tls.Config{Certificates: []tls.Certificate{serverCert}}, okHandler())

	// No CAFiles, so the self-signed server certificate fails verification.
	tlsConfig, err := Config{Enabled: true}.ClientConfig()
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}}
	resp, err := client.Get(srv.URL)
	if resp != nil {
		defer resp.Body.Close()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")
}

func TestClientConfig_InsecureSkipVerifyAcceptsAnyCert(t *testing.T) {
	certPEM, keyPEM := generateTestCert(t, "localhost")
	serverCert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	srv := startTLSServer(t, &tls.Config{Certificates: []tls.Certificate{serverCert}}, okHandler())

	tlsConfig, err := Config{Enabled: true, InsecureSkipVerify: true}.ClientConfig()
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientConfig_PresentsClientCertificate(t *testing.T) {
	serverCertPEM, serverKeyPEM := generateTestCert(t, "localhost")
	serverCert, err := tls.X509KeyPair(serverCertPEM, serverKeyPEM)
	require.NoError(t, err)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, serverCertPEM, 0o644))

	clientCertPEM, clientKeyPEM := generateTestCert(t, "test-client")
	clientDir := t.TempDir()
	clientCertFile := filepath.Join(clientDir, "client-cert.pem")
	clientKeyFile := filepath.Join(clientDir, "client-key.pem")
	require.NoError(t, os.WriteFile(clientCertFile, clientCertPEM, 0o644))
	require.NoError(t, os.WriteFile(clientKeyFile, clientKeyPEM, 0o600))

	sawClientCert := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawClientCert = r.TLS != nil && len(r.TLS.PeerCertificates) > 0
		w.WriteHeader(http.StatusOK)
	})

	srv := startTLSServer(t, &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientAuth:   tls.RequireAnyClientCert,
	}, handler)

	tlsConfig, err := Config{
		Enabled:  true,
		CAFiles:  []string{caFile},
		CertFile: clientCertFile,
		KeyFile:  clientKeyFile,
	}.ClientConfig()
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sawClientCert, "server should have received the client certificate")
}
