package tools

import (
	"context"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSLCheckerTrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	roots := x509.NewCertPool()
	roots.AddCert(server.Certificate())
	checker := NewSSLChecker(2*time.Second, nil, WithRootCAs(roots))

	host := strings.TrimPrefix(server.URL, "https://")
	result, err := checker.Check(context.Background(), SiteInput{Site: host})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", result.Host)
	assert.True(t, result.HTTPS)
	assert.True(t, result.Valid, result.VerifyError)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.TLSVersion)
	assert.Equal(t, "Acme Co", result.Issuer)
	assert.Positive(t, result.DaysRemaining)
	assert.False(t, result.CoversWWW)
}

func TestSSLCheckerUntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	checker := NewSSLChecker(2*time.Second, nil, WithRootCAs(x509.NewCertPool()))
	result, err := checker.Check(context.Background(), SiteInput{Site: server.URL})
	require.NoError(t, err)

	assert.True(t, result.HTTPS)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.VerifyError)
	assert.Equal(t, "Acme Co", result.Issuer)
}

func TestSSLCheckerNoTLS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	result, err := NewSSLChecker(2*time.Second, nil).Check(context.Background(), SiteInput{Site: host})
	require.NoError(t, err)

	assert.False(t, result.HTTPS)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "TLS handshake failed")
}

func TestSSLCheckerUnreachableHost(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	result, err := NewSSLChecker(time.Second, nil).Check(context.Background(), SiteInput{Site: addr})
	require.NoError(t, err)
	assert.False(t, result.HTTPS)
	assert.NotEmpty(t, result.Error)
}

func TestSSLCheckerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSSLChecker(time.Second, nil).Check(ctx, SiteInput{Site: "example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCoversWWW(t *testing.T) {
	cert := &x509.Certificate{DNSNames: []string{"example.com", "www.example.com", "*.shop.example"}}

	assert.True(t, coversWWW(cert, "example.com"))
	assert.True(t, coversWWW(cert, "www.example.com"))
	assert.True(t, coversWWW(cert, "shop.example"))
	assert.False(t, coversWWW(&x509.Certificate{DNSNames: []string{"example.com"}}, "example.com"))
	assert.False(t, coversWWW(cert, "127.0.0.1"))
}
