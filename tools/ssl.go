package tools

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strings"
	"time"

	"seo-agent/logging"
)

// SSLResult describes the HTTPS setup of a host as seen in one handshake.
type SSLResult struct {
	Host          string    `json:"host"`
	HTTPS         bool      `json:"https"`
	TLSVersion    string    `json:"tls_version,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Issuer        string    `json:"issuer,omitempty"`
	DNSNames      []string  `json:"dns_names,omitempty"`
	NotBefore     time.Time `json:"not_before,omitzero"`
	NotAfter      time.Time `json:"not_after,omitzero"`
	DaysRemaining int       `json:"days_remaining"`
	Valid         bool      `json:"valid"`
	VerifyError   string    `json:"verify_error,omitempty"`
	CoversWWW     bool      `json:"covers_www"`
	Error         string    `json:"error,omitempty"`
}

// SSLChecker handshakes with a host on 443 (or the port in the site URL),
// then verifies the presented chain itself so certificate details are
// reported even when the chain is not trusted.
type SSLChecker struct {
	timeout time.Duration
	roots   *x509.CertPool
	logger  logging.Logger
	now     func() time.Time
}

type SSLOption func(*SSLChecker)

// WithRootCAs replaces the system trust store.
func WithRootCAs(pool *x509.CertPool) SSLOption {
	return func(c *SSLChecker) {
		c.roots = pool
	}
}

func NewSSLChecker(timeout time.Duration, logger logging.Logger, opts ...SSLOption) *SSLChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &SSLChecker{timeout: timeout, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check never returns an error for an unreachable host; the failure is
// reported in SSLResult.Error with HTTPS false.
func (c *SSLChecker) Check(ctx context.Context, input SiteInput) (SSLResult, error) {
	target, err := normalizeSite(input.Site)
	if err != nil {
		return SSLResult{}, err
	}
	host := target.Hostname()
	port := target.Port()
	if port == "" {
		port = "443"
	}
	result := SSLResult{Host: host}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.timeout},
		Config: &tls.Config{
			ServerName: host,
			// Verification happens below against the same chain.
			InsecureSkipVerify: true,
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		if parentErr := parent.Err(); parentErr != nil {
			return SSLResult{}, parentErr
		}
		result.Error = fmt.Sprintf("TLS handshake failed: %v", err)
		c.logger.WithFields(logging.Fields{
			"host":  host,
			"error": err.Error(),
		}).Warn("SSL check failed")
		return result, nil
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	result.HTTPS = true
	result.TLSVersion = tls.VersionName(state.Version)
	if len(state.PeerCertificates) == 0 {
		result.VerifyError = "server presented no certificate"
		return result, nil
	}

	leaf := state.PeerCertificates[0]
	now := c.now()
	result.Subject = leaf.Subject.String()
	result.Issuer = issuerName(leaf)
	result.DNSNames = leaf.DNSNames
	result.NotBefore = leaf.NotBefore
	result.NotAfter = leaf.NotAfter
	result.DaysRemaining = int(leaf.NotAfter.Sub(now).Hours() / 24)

	intermediates := x509.NewCertPool()
	for _, cert := range state.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         c.roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	result.Valid = verifyErr == nil
	if verifyErr != nil {
		result.VerifyError = verifyErr.Error()
	}
	result.CoversWWW = coversWWW(leaf, host)

	c.logger.WithFields(logging.Fields{
		"host":           host,
		"valid":          result.Valid,
		"days_remaining": result.DaysRemaining,
		"tls_version":    result.TLSVersion,
	}).Debug("SSL check completed")
	return result, nil
}

func (c *SSLChecker) Tool() Tool {
	return NewTool("check_site_protocol_ssl",
		"Open one TLS connection to the site and report HTTPS availability, TLS version, certificate issuer, validity, days until expiry and whether the certificate also covers the www (or bare) variant of the domain.",
		siteParams("Domain or URL of the site, e.g. example.com.", nil),
		c.Check)
}

func issuerName(cert *x509.Certificate) string {
	if len(cert.Issuer.Organization) > 0 {
		return strings.Join(cert.Issuer.Organization, ", ")
	}
	return cert.Issuer.CommonName
}

// coversWWW reports whether the certificate is also good for the other
// www form of host: www.example.com for example.com and the reverse.
func coversWWW(cert *x509.Certificate, host string) bool {
	if net.ParseIP(host) != nil {
		return false
	}
	other := "www." + host
	if strings.HasPrefix(host, "www.") {
		other = strings.TrimPrefix(host, "www.")
	}
	return cert.VerifyHostname(other) == nil
}
