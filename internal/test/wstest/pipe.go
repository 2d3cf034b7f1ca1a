package wstest

import (
	"context"
	"fmt"
	"net"

	"github.com/ixsocket/ixws"
)

// Pipe connects a client and server Conn over a loopback TCP listener,
// analogous to net.Pipe but exercising the real handshake path (Dial
// always resolves and dials a URL itself, so a true in-memory net.Pipe
// cannot stand in for the transport the way it could for an
// http.Hijacker-based Accept).
func Pipe(dialOpts *ixws.DialOptions, acceptOpts *ixws.AcceptOptions) (_ *ixws.Conn, _ *ixws.Conn, err error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ws pipe: %w", err)
	}
	defer ln.Close()

	type acceptResult struct {
		c   *ixws.Conn
		err error
	}
	acceptedCh := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			acceptedCh <- acceptResult{err: err}
			return
		}
		c, err := ixws.Accept(conn, acceptOpts)
		acceptedCh <- acceptResult{c: c, err: err}
	}()

	url := fmt.Sprintf("ws://%s/", ln.Addr().String())
	clientConn, err := ixws.Dial(context.Background(), url, dialOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial ws pipe: %w", err)
	}

	res := <-acceptedCh
	if res.err != nil {
		return nil, nil, fmt.Errorf("failed to accept ws pipe: %w", res.err)
	}

	return clientConn, res.c, nil
}
