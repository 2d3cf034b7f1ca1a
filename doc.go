// Package ixws is a from-scratch implementation of the WebSocket protocol
// (RFC 6455) over raw TCP/TLS sockets: client dial, server accept, framing,
// per-message deflate (RFC 7692), ping/pong heartbeat and a reconnecting
// client facade.
//
// Dial, Accept and Conn are the main entrypoints. Use Dial to connect to a
// WebSocket server and get back a *Conn. Use Accept on an accepted
// net.Conn (or one hijacked from an http.Handler) to run the server side
// of the handshake and get back a *Conn. Use WebSocket
// for a client that should reconnect automatically with exponential
// backoff instead of failing on the first dropped connection.
//
// The wsjson and wspb subpackages layer JSON and protobuf message
// helpers on top of Conn. The server subpackage implements a multi-client
// accept loop with a connection registry. The httpclient subpackage is a
// standalone HTTP/1.1 client built directly on raw sockets with its own
// small status-line and header reader, supporting chunked transfer, gzip
// and redirects.
//
// Unlike net/http-based WebSocket libraries, the handshake in this
// package runs directly over the socket so that a single cancellable
// deadline can span DNS resolution, TCP connect and the HTTP/1.1
// upgrade exchange.
package ixws
