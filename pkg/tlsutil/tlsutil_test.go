package tlsutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// generateTestCert creates a self-signed certificate for testing. The
// certificate is valid for localhost and the loopback addresses so real
// handshakes against httptest servers verify.
func generateTestCert(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test Org"},
			CommonName:   cn,
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	})

	keyPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	return certPEM, keyPEM
}

// setupTestFiles writes temporary cert/key/CA files for testing.
func setupTestFiles(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()

	tmpDir := t.TempDir()

	certPEM, keyPEM := generateTestCert(t, "localhost")

	certFile = filepath.Join(tmpDir, "cert.pem")
	keyFile = filepath.Join(tmpDir, "key.pem")
	caFile = filepath.Join(tmpDir, "ca.pem")

	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644)) // self-signed, so cert = CA

	return certFile, keyFile, caFile
}

func TestConfig_ClientConfig(t *testing.T) {
	certFile, keyFile, caFile := setupTestFiles(t)

	badPEMFile := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(badPEMFile, []byte("not pem data"), 0o644))

	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
		check   func(t *testing.T, got *tls.Config)
	}{
		{
			name:    "disabled",
			cfg:     Config{Enabled: false},
			wantNil: true,
		},
		{
			name: "enabled defaults to TLS 1.2",
			cfg:  Config{Enabled: true},
			check: func(t *testing.T, got *tls.Config) {
				assert.Equal(t, uint16(tls.VersionTLS12), got.MinVersion)
				assert.NotNil(t, got.RootCAs)
				assert.Empty(t, got.Certificates)
				assert.False(t, got.InsecureSkipVerify)
			},
		},
		{
			name: "min version 1.3",
			cfg:  Config{Enabled: true, MinVersion: "1.3"},
			check: func(t *testing.T, got *tls.Config) {
				assert.Equal(t, uint16(tls.VersionTLS13), got.MinVersion)
			},
		},
		{
			name: "unknown min version falls back to 1.2",
			cfg:  Config{Enabled: true, MinVersion: "1.1"},
			check: func(t *testing.T, got *tls.Config) {
				assert.Equal(t, uint16(tls.VersionTLS12), got.MinVersion)
			},
		},
		{
			name: "extra CA file",
			cfg:  Config{Enabled: true, CAFiles: []string{caFile}},
			check: func(t *testing.T, got *tls.Config) {
				assert.NotNil(t, got.RootCAs)
			},
		},
		{
			name:    "missing CA file",
			cfg:     Config{Enabled: true, CAFiles: []string{"/nonexistent/ca.pem"}},
			wantErr: true,
		},
		{
			name:    "invalid CA PEM",
			cfg:     Config{Enabled: true, CAFiles: []string{badPEMFile}},
			wantErr: true,
		},
		{
			name: "client certificate",
			cfg:  Config{Enabled: true, CertFile: certFile, KeyFile: keyFile},
			check: func(t *testing.T, got *tls.Config) {
				assert.Len(t, got.Certificates, 1)
			},
		},
		{
			name:    "client certificate missing key",
			cfg:     Config{Enabled: true, CertFile: certFile},
			wantErr: true,
		},
		{
			name: "insecure skip verify",
			cfg:  Config{Enabled: true, InsecureSkipVerify: true},
			check: func(t *testing.T, got *tls.Config) {
				assert.True(t, got.InsecureSkipVerify)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.ClientConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsFatal(err), "TLS config errors are fatal")
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestParseTLSVersion(t *testing.T) {
	tests := []struct {
		version string
		want    uint16
	}{
		{"1.3", tls.VersionTLS13},
		{"1.2", tls.VersionTLS12},
		{"", tls.VersionTLS12},
		{"1.0", tls.VersionTLS12},
		{"garbage", tls.VersionTLS12},
	}

	for _, tt := range tests {
		t.Run("version_"+tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTLSVersion(tt.version))
		})
	}
}
