package ixws

import (
	"fmt"
	"net"
)

// Accept performs the server side of a WebSocket handshake over an
// already-accepted raw connection and returns the resulting Conn.
// Unlike a net/http.Hijacker-based accept, the caller owns the TCP or TLS
// listener: this lets a server share the same raw-socket plumbing Dial
// uses for dialing and TLS, rather than depending on the hijack path
// (see the divergence documented on clientHandshake).
func Accept(conn net.Conn, opts *AcceptOptions) (*Conn, error) {
	if opts == nil {
		opts = &AcceptOptions{}
	}

	br, bw, result, err := serverHandshake(conn, opts)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to accept websocket connection: %w", err)
	}

	var copts *compressionOptions
	if result.copts != nil {
		copts = result.copts.toInternal()
	}

	return newConn(false, br, bw, conn, result.subprotocol, copts), nil
}
