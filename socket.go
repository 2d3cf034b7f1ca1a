package ixws

import (
	"context"
	"fmt"
	"net"
	"time"
)

// noDeadline clears a previously set read/write deadline on a net.Conn.
var noDeadline = time.Time{}

// dialTCP resolves host (a host:port pair) and connects a plain TCP
// socket to it, honoring ctx for both the resolution and the connect.
// TCP_NODELAY is enabled the way IXSocketConnect.cpp configures its raw
// sockets, since WebSocket frames are typically small and latency
// sensitive.
func dialTCP(ctx context.Context, hostport string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %q: %w", hostport, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// setDeadline sets conn's deadline timeout from now; a zero timeout means
// "no deadline", matching how DialOptions/Options leave their timeout
// fields unset by default. Nothing in the module calls it at present.
func setDeadline(conn net.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		return conn.SetDeadline(time.Time{})
	}
	return conn.SetDeadline(time.Now().Add(timeout))
}
