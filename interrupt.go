package ixws

// interrupter is a descriptor that a poll/select loop can watch next to a
// connection's own descriptor and that becomes readable on demand. Conn
// fires it from close; a read blocked on the connection itself is
// aborted by closing the underlying net.Conn, not by the interrupter.
type interrupter interface {
	// fd returns the read end that becomes readable once interrupt is
	// called, so it can be added next to a connection's file descriptor
	// in a select/poll loop.
	fd() uintptr
	// interrupt wakes any goroutine blocked waiting on fd.
	interrupt() error
	// clear drains the pending wakeup so the interrupter can be reused.
	clear() error
	close() error
}
