package ixws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DialOptions configures Dial.
type DialOptions struct {
	// HTTPHeader specifies additional headers to send with the handshake
	// request, e.g. Authorization or Cookie.
	HTTPHeader http.Header

	// Subprotocols lists the subprotocols offered to the server, in
	// preference order. The server's choice, if any, is available from
	// Conn.Subprotocol after Dial returns.
	Subprotocols []string

	// Compression configures permessage-deflate negotiation. nil, the
	// default, disables the extension.
	Compression *CompressionOptions

	// TLSOptions configures the TLS session for a wss:// URL. Ignored for
	// ws://. A nil value uses the system root CAs with normal peer
	// verification.
	TLSOptions *TLSOptions

	// Timeout bounds DNS resolution, the TCP connect and the HTTP/1.1
	// upgrade exchange together. Zero means no timeout beyond ctx's own
	// deadline.
	Timeout time.Duration
}

func (opts *DialOptions) ensure() *DialOptions {
	if opts == nil {
		opts = &DialOptions{}
	} else {
		o := *opts
		opts = &o
	}
	if opts.HTTPHeader == nil {
		opts.HTTPHeader = http.Header{}
	}
	return opts
}

// Dial performs a WebSocket handshake against the given ws:// or wss://
// URL and returns the resulting connection. ctx bounds DNS resolution,
// the TCP connect and the HTTP/1.1 upgrade exchange as a single
// cancellable unit, unlike a net/http-based dial which only covers the
// request/response.
func Dial(ctx context.Context, rawurl string, opts *DialOptions) (*Conn, error) {
	opts = opts.ensure()

	pu, err := parseURL(rawurl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", rawurl, err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = withTimeoutCancel(ctx, opts.Timeout)
		defer cancel()
	}

	host, _, err := net.SplitHostPort(pu.host)
	if err != nil {
		host = pu.host
	}

	addrs, err := resolveHost(ctx, net.DefaultResolver, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses found for %q", host)
	}

	rawConn, err := dialTCP(ctx, pu.host)
	if err != nil {
		return nil, err
	}

	var conn net.Conn = rawConn
	closeOnErr := true
	defer func() {
		if closeOnErr {
			conn.Close()
		}
	}()

	if pu.tls {
		tlsOpts := opts.TLSOptions
		if tlsOpts == nil {
			tlsOpts = &TLSOptions{}
		}
		serverName := tlsOpts.ServerName
		if serverName == "" {
			serverName = host
		}
		cfg, err := tlsOpts.clientConfig(serverName)
		if err != nil {
			return nil, err
		}
		tc := tls.Client(conn, cfg)
		if dl, ok := ctx.Deadline(); ok {
			_ = tc.SetDeadline(dl)
		}
		if err := tc.HandshakeContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to TLS handshake with %q: %w", pu.host, err)
		}
		_ = tc.SetDeadline(noDeadline)
		conn = tc
	}

	br, bw, result, err := clientHandshake(ctx, conn, pu, pu.host, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to websocket dial %q: %w", rawurl, err)
	}

	var copts *compressionOptions
	if result.copts != nil {
		copts = result.copts.toInternal()
	}

	c := newConn(true, br, bw, conn, result.subprotocol, copts)
	closeOnErr = false
	return c, nil
}
