package ixws

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSOptions configures the TLS client or server handshake performed
// after the raw TCP connect and before the WebSocket upgrade. It mirrors
// the cert/key/CA file trio of a typical socket TLS configuration struct,
// realized on top of crypto/tls instead of OpenSSL/mbedTLS/SChannel.
type TLSOptions struct {
	// CertFile and KeyFile configure a client certificate (mutual TLS)
	// or, on the server side, the server's own certificate.
	CertFile string
	KeyFile  string

	// CAFile names a PEM bundle of certificate authorities that replaces
	// the host's root CAs. Empty or the special value "SYSTEM" keeps the
	// host's root CAs. The special value "NONE" disables peer
	// verification entirely; use only for testing against a self-signed
	// endpoint.
	CAFile string

	// ServerName overrides the SNI / certificate hostname check.
	ServerName string
}

func (o TLSOptions) peerVerifyDisabled() bool {
	return o.CAFile == "NONE"
}

// clientConfig builds a *tls.Config for dialing serverName.
func (o TLSOptions) clientConfig(serverName string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: o.peerVerifyDisabled(),
		MinVersion:         tls.VersionTLS12,
	}
	if o.ServerName != "" {
		cfg.ServerName = o.ServerName
	}

	if o.CertFile != "" || o.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if o.CAFile != "" && o.CAFile != "NONE" && o.CAFile != "SYSTEM" {
		pool, err := loadCAFile(o.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// serverConfig builds a *tls.Config for accepting TLS connections; it
// requires CertFile and KeyFile since a server always needs a
// certificate to present.
func (o TLSOptions) serverConfig() (*tls.Config, error) {
	if o.CertFile == "" || o.KeyFile == "" {
		return nil, fmt.Errorf("server TLS requires both CertFile and KeyFile")
	}
	cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if o.CAFile != "" && o.CAFile != "NONE" && o.CAFile != "SYSTEM" {
		pool, err := loadCAFile(o.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}

func loadCAFile(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file %q: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in CA file %q", path)
	}
	return pool, nil
}
