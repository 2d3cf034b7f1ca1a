// Package server runs a plain TCP/TLS listener that upgrades every
// accepted connection to a WebSocket and hands it to a user-supplied
// handler, keyed by a monotonically increasing connection ID.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ixsocket/ixws"
)

// ConnID identifies a connection for the lifetime of a Server. IDs are
// never reused, standing in for the raw-pointer-keyed connection map of
// a C++ implementation with an index that can't dangle.
type ConnID uint64

// StateFactory builds the per-connection state value passed to Handler.
type StateFactory func() interface{}

// Handler is invoked in its own goroutine for every accepted connection
// and owns that connection until it returns.
type Handler func(id ConnID, conn *ixws.Conn, state interface{})

// Options configures a Server.
type Options struct {
	// AcceptOptions is used for every upgrade.
	AcceptOptions *ixws.AcceptOptions

	// State builds the per-connection state handed to Handler. Defaults
	// to a factory that returns nil.
	State StateFactory

	// AcceptRateLimit, if set, throttles how quickly new connections are
	// handed off to Handler; callers that exceed it simply wait.
	AcceptRateLimit *rate.Limiter

	// ReapInterval is the tick period of the server's reap loop.
	// Defaults to 10ms. A connection leaves the registry as soon as its
	// handler returns, not on this tick.
	ReapInterval time.Duration

	Logf func(format string, v ...interface{})
}

func (o *Options) ensure() *Options {
	if o == nil {
		o = &Options{}
	} else {
		c := *o
		o = &c
	}
	if o.State == nil {
		o.State = func() interface{} { return nil }
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = 10 * time.Millisecond
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o
}

// Server accepts connections on a net.Listener, performs the WebSocket
// handshake on each, and dispatches them to a Handler.
type Server struct {
	ln      net.Listener
	opts    *Options
	handler Handler

	mu       sync.Mutex
	nextID   ConnID
	conns    map[ConnID]*registeredConn
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

type registeredConn struct {
	conn *ixws.Conn
	done chan struct{}
}

// Listen binds addr and returns a Server ready for Start.
func Listen(network, addr string, handler Handler, opts *Options) (*Server, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", addr, err)
	}
	return &Server{
		ln:      ln,
		opts:    opts.ensure(),
		handler: handler,
		conns:   make(map[ConnID]*registeredConn),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Start runs the accept loop and the reap sweep until Stop is called.
// It returns once the accept loop has exited; the reap loop stops on its
// own when Stop is called.
func (s *Server) Start() {
	go s.reapLoop()
	s.acceptLoop()
	close(s.doneCh)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.opts.Logf("server: accept failed: %v", err)
				continue
			}
		}

		if s.opts.AcceptRateLimit != nil {
			if err := s.opts.AcceptRateLimit.Wait(context.Background()); err != nil {
				conn.Close()
				continue
			}
		}

		go s.handle(conn)
	}
}

func (s *Server) handle(raw net.Conn) {
	c, err := ixws.Accept(raw, s.opts.AcceptOptions)
	if err != nil {
		s.opts.Logf("server: handshake failed: %v", err)
		return
	}

	rc := &registeredConn{conn: c, done: make(chan struct{})}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.conns[id] = rc
	s.mu.Unlock()

	defer func() {
		close(rc.done)
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	s.handler(id, c, s.opts.State())
}

// reapLoop is a placeholder sweep point: registeredConn entries remove
// themselves from the map as soon as their handler goroutine returns, so
// this loop's only job is to give the server a steady heartbeat to hang
// future liveness checks off of (see DESIGN.md).
func (s *Server) reapLoop() {
	t := time.NewTicker(s.opts.ReapInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
		}
	}
}

// Stop closes the listener and every active connection, then waits for
// the accept loop to exit.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.ln.Close()

		s.mu.Lock()
		conns := make([]*registeredConn, 0, len(s.conns))
		for _, rc := range s.conns {
			conns = append(conns, rc)
		}
		s.mu.Unlock()

		for _, rc := range conns {
			_ = rc.conn.Close(ixws.StatusNormalClosure, "Normal closure")
			<-rc.done
		}
	})
	<-s.doneCh
}

// Count returns the number of active connections.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
