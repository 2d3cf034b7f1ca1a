package ixws

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ReadyState mirrors the browser WebSocket readyState property.
type ReadyState int

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MessageKind distinguishes the events an OnMessage callback observes.
type MessageKind int

const (
	EventMessage MessageKind = iota
	EventOpen
	EventClose
	EventError
)

// Event is delivered to a WebSocket's OnMessage callback.
type Event struct {
	Kind MessageKind

	// Data and MessageType are set for EventMessage.
	Data        []byte
	MessageType MessageType

	// Err is set for EventError.
	Err error

	// CloseCode/CloseReason/Remote are set for EventClose. Remote is
	// true when the peer sent the close frame (or the connection simply
	// dropped) and false when this WebSocket initiated the close.
	CloseCode   StatusCode
	CloseReason string
	Remote      bool
}

// Options configures a WebSocket facade.
type Options struct {
	// DialOptions is used for every (re)connect attempt.
	DialOptions *DialOptions

	// PingInterval, if positive, sends a PING control frame with payload
	// "ixwebsocket::heartbeat::<n>s" on this interval, matching
	// IXWebSocketTransport's kPingMessage format.
	PingInterval time.Duration

	// PingTimeout, if positive, closes the connection with
	// StatusInternalError/"Ping timeout" when no PONG answers a PING
	// within this long. Only meaningful when PingInterval is also set.
	PingTimeout time.Duration

	// MaxReconnectWait caps the exponential reconnect backoff computed
	// by calculateRetryWait. Defaults to 10s.
	MaxReconnectWait time.Duration

	// DisableAutomaticReconnection stops WebSocket from redialing after
	// the connection drops; Stop is still required to clean up.
	DisableAutomaticReconnection bool

	// SendRateLimit, if set, throttles outbound Send/SendText calls.
	SendRateLimit *rate.Limiter

	Logf func(format string, v ...interface{})
}

func (o *Options) ensure() *Options {
	if o == nil {
		o = &Options{}
	} else {
		c := *o
		o = &c
	}
	if o.DialOptions == nil {
		o.DialOptions = &DialOptions{}
	}
	if o.MaxReconnectWait <= 0 {
		o.MaxReconnectWait = 10 * time.Second
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o
}

// WebSocket is a self-reconnecting client built on Dial. Start it with
// Start and stop it with Stop; OnMessage delivers every message, open,
// close and error event from one goroutine for the lifetime of the
// facade.
type WebSocket struct {
	url  string
	opts *Options

	onMessage func(Event)

	mu         sync.Mutex
	state      ReadyState
	conn       *Conn
	stopCh     chan struct{}
	stoppedCh  chan struct{}
	retryCount int
}

// NewWebSocket creates a facade for url. Call SetOnMessage before Start
// to observe events.
func NewWebSocket(url string, opts *Options) *WebSocket {
	return &WebSocket{
		url:   url,
		opts:  opts.ensure(),
		state: StateClosed,
	}
}

// SetOnMessage installs the event callback. Must be called before Start.
func (w *WebSocket) SetOnMessage(f func(Event)) {
	w.onMessage = f
}

func (w *WebSocket) emit(e Event) {
	if w.onMessage != nil {
		w.onMessage(e)
	}
}

// ReadyState returns the facade's current state.
func (w *WebSocket) ReadyState() ReadyState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *WebSocket) setState(s ReadyState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Start begins connecting in a background goroutine and returns
// immediately.
func (w *WebSocket) Start() {
	w.mu.Lock()
	if w.stopCh != nil {
		w.mu.Unlock()
		return
	}
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	w.mu.Unlock()

	go w.run()
}

// Stop closes the connection, if any, with the given status and reason
// and blocks until the background goroutine exits.
func (w *WebSocket) Stop(code StatusCode, reason string) {
	w.mu.Lock()
	stopCh := w.stopCh
	conn := w.conn
	w.mu.Unlock()
	if stopCh == nil {
		return
	}

	w.setState(StateClosing)
	close(stopCh)
	if conn != nil {
		_ = conn.Close(code, reason)
	}
	<-w.stoppedCh

	w.mu.Lock()
	w.stopCh = nil
	w.mu.Unlock()
}

func (w *WebSocket) run() {
	defer close(w.stoppedCh)
	defer w.setState(StateClosed)

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		w.setState(StateConnecting)
		conn, err := Dial(context.Background(), w.url, w.opts.DialOptions)
		if err != nil {
			w.emit(Event{Kind: EventError, Err: fmt.Errorf("failed to dial %q: %w", w.url, err)})
			if w.opts.DisableAutomaticReconnection {
				return
			}
			if !w.sleepBackoff() {
				return
			}
			continue
		}

		w.mu.Lock()
		w.conn = conn
		w.retryCount = 0
		w.mu.Unlock()
		w.setState(StateOpen)
		w.emit(Event{Kind: EventOpen})

		w.serve(conn)

		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()

		select {
		case <-w.stopCh:
			return
		default:
		}
		if w.opts.DisableAutomaticReconnection {
			return
		}
		if !w.sleepBackoff() {
			return
		}
	}
}

func (w *WebSocket) sleepBackoff() bool {
	w.mu.Lock()
	w.retryCount++
	wait := calculateRetryWait(w.retryCount, w.opts.MaxReconnectWait)
	w.mu.Unlock()

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-w.stopCh:
		return false
	case <-t.C:
		return true
	}
}

func (w *WebSocket) serve(conn *Conn) {
	var pingC <-chan time.Time
	if w.opts.PingInterval > 0 {
		ping := time.NewTicker(w.opts.PingInterval)
		defer ping.Stop()
		pingC = ping.C
	}

	msgs := make(chan Event)
	go func() {
		defer close(msgs)
		for {
			typ, p, err := conn.Read(context.Background())
			if err != nil {
				msgs <- closeEvent(err)
				return
			}
			msgs <- Event{Kind: EventMessage, MessageType: typ, Data: p}
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return
		case <-pingC:
			if err := w.sendHeartbeat(conn); err != nil {
				_ = conn.Close(StatusInternalError, "Ping timeout")
				w.emit(Event{Kind: EventClose, CloseCode: StatusInternalError, CloseReason: "Ping timeout"})
				return
			}
		case e, ok := <-msgs:
			if !ok {
				return
			}
			w.emit(e)
			if e.Kind == EventClose {
				return
			}
		}
	}
}

func closeEvent(err error) Event {
	code := CloseStatus(err)
	remote := CloseRemote(err)
	if code == -1 {
		code = StatusAbnormalClosure
		remote = true
	}
	return Event{Kind: EventClose, CloseCode: code, CloseReason: err.Error(), Remote: remote}
}

// sendHeartbeat sends a PING frame carrying the
// "ixwebsocket::heartbeat::<n>s" payload used by
// IXWebSocketTransport::kPingMessage and waits up to PingTimeout for the
// matching PONG.
func (w *WebSocket) sendHeartbeat(conn *Conn) error {
	ctx := context.Background()
	if w.opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.PingTimeout)
		defer cancel()
	}

	text := fmt.Sprintf("ixwebsocket::heartbeat::%ds", int(w.opts.PingInterval/time.Second))
	if err := conn.ping(ctx, text); err != nil {
		return fmt.Errorf("ping timed out: %w", err)
	}
	return nil
}

// Send writes a binary message, honoring SendRateLimit if configured.
func (w *WebSocket) Send(ctx context.Context, p []byte) error {
	return w.send(ctx, MessageBinary, p)
}

// SendText writes a text message, honoring SendRateLimit if configured.
func (w *WebSocket) SendText(ctx context.Context, s string) error {
	return w.send(ctx, MessageText, []byte(s))
}

func (w *WebSocket) send(ctx context.Context, typ MessageType, p []byte) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("websocket: not connected")
	}

	if w.opts.SendRateLimit != nil {
		if err := w.opts.SendRateLimit.Wait(ctx); err != nil {
			return fmt.Errorf("websocket: rate limit wait: %w", err)
		}
	}

	return conn.Write(ctx, typ, p)
}

// Ping sends a ping frame and waits for the matching pong.
func (w *WebSocket) Ping(ctx context.Context) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("websocket: not connected")
	}
	return conn.Ping(ctx)
}
