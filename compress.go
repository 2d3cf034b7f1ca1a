package ixws

import (
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionMode selects how the permessage-deflate extension
// (https://tools.ietf.org/html/rfc7692) is applied to a connection.
type CompressionMode int

const (
	// CompressionDisabled disables permessage-deflate entirely. This is
	// the default: predominantly binary, low-duplication protocols gain
	// little from it and it costs CPU and memory per connection.
	CompressionDisabled CompressionMode = iota

	// CompressionContextTakeover keeps a 32kB sliding window and a
	// flate.Writer per connection, reusing compression state across
	// messages. Most text-heavy protocols benefit since messages tend
	// to repeat structure. If the peer requires no_context_takeover,
	// that is honored instead, per the RFC.
	CompressionContextTakeover

	// CompressionNoContextTakeover allocates a flate.Reader/Writer per
	// message instead of per connection: lower memory overhead for
	// connections that are long lived but rarely used, at the cost of
	// compression ratio. Every message is compressed, whatever its size.
	CompressionNoContextTakeover
)

func (m CompressionMode) opts() *compressionOptions {
	return &compressionOptions{
		clientNoContextTakeover: m == CompressionNoContextTakeover,
		serverNoContextTakeover: m == CompressionNoContextTakeover,
	}
}

type compressionOptions struct {
	clientNoContextTakeover bool
	serverNoContextTakeover bool

	// clientMaxWindowBits and serverMaxWindowBits record the negotiated
	// window-bits parameters (already promoted 8->9); they are bookkeeping
	// only; compress/flate always uses a 32kB window regardless of value.
	clientMaxWindowBits int
	serverMaxWindowBits int
}

func (copts *compressionOptions) setHeader(h http.Header) {
	s := "permessage-deflate"
	if copts.clientNoContextTakeover {
		s += "; client_no_context_takeover"
	}
	if copts.serverNoContextTakeover {
		s += "; server_no_context_takeover"
	}
	if copts.clientMaxWindowBits != 0 {
		s += fmt.Sprintf("; client_max_window_bits=%d", copts.clientMaxWindowBits)
	}
	if copts.serverMaxWindowBits != 0 {
		s += fmt.Sprintf("; server_max_window_bits=%d", copts.serverMaxWindowBits)
	}
	h.Set("Sec-WebSocket-Extensions", s)
}

// deflateMessageTail ends the sender's sync flush and is stripped before
// the message goes on the wire; the receiver appends it again because
// flate.Reader needs it present to terminate a stream that the WebSocket
// frame boundary already delimits.
const deflateMessageTail = "\x00\x00\xff\xff"

// trimLastFourBytesWriter buffers the last 4 bytes written to it and
// only forwards them to the wrapped writer once it is sure they are not
// the deflate tail, so compressed messages can omit the tail on the wire.
type trimLastFourBytesWriter struct {
	w    io.Writer
	tail []byte
}

func (tw *trimLastFourBytesWriter) reset() {
	if tw != nil && tw.tail != nil {
		tw.tail = tw.tail[:0]
	}
}

func (tw *trimLastFourBytesWriter) Write(p []byte) (int, error) {
	if tw.tail == nil {
		tw.tail = make([]byte, 0, 4)
	}

	extra := len(tw.tail) + len(p) - 4
	if extra <= 0 {
		tw.tail = append(tw.tail, p...)
		return len(p), nil
	}

	if extra > len(tw.tail) {
		extra = len(tw.tail)
	}
	if extra > 0 {
		if _, err := tw.w.Write(tw.tail[:extra]); err != nil {
			return 0, err
		}
		n := copy(tw.tail, tw.tail[extra:])
		tw.tail = tw.tail[:n]
	}

	if len(p) <= 4 {
		tw.tail = append(tw.tail, p...)
		return len(p), nil
	}

	tw.tail = append(tw.tail, p[len(p)-4:]...)
	p = p[:len(p)-4]
	n, err := tw.w.Write(p)
	return n + 4, err
}

var flateReaderPool sync.Pool

func getFlateReader(r io.Reader, dict []byte) io.Reader {
	fr, ok := flateReaderPool.Get().(io.Reader)
	if !ok {
		return flate.NewReaderDict(r, dict)
	}
	fr.(flate.Resetter).Reset(r, dict)
	return fr
}

func putFlateReader(fr io.Reader) {
	flateReaderPool.Put(fr)
}

var flateWriterPool sync.Pool

// getFlateWriter returns a flate.Writer targeting w. When dict is
// non-empty (context takeover with prior message history), a fresh
// writer primed with dict is always built: flate.Writer.Reset does not
// accept a new dictionary, only re-arms the one the writer was
// originally constructed with, so pooled reuse only applies to the
// dict-less case.
func getFlateWriter(w io.Writer, dict []byte) *flate.Writer {
	if len(dict) > 0 {
		fw, _ := flate.NewWriterDict(w, flate.BestSpeed, dict)
		return fw
	}
	fw, ok := flateWriterPool.Get().(*flate.Writer)
	if !ok {
		fw, _ = flate.NewWriter(w, flate.BestSpeed)
		return fw
	}
	fw.Reset(w)
	return fw
}

// putFlateWriter returns a dict-less writer to the pool. Dict-primed
// writers are simply dropped; see getFlateWriter.
func putFlateWriter(w *flate.Writer) {
	flateWriterPool.Put(w)
}

// slidingWindow is the per-connection compression dictionary kept across
// messages under CompressionContextTakeover.
type slidingWindow struct {
	buf []byte
}

var (
	swPoolMu sync.RWMutex
	swPool   = map[int]*sync.Pool{}
)

func slidingWindowPool(n int) *sync.Pool {
	swPoolMu.RLock()
	p, ok := swPool[n]
	swPoolMu.RUnlock()
	if ok {
		return p
	}

	p = &sync.Pool{}
	swPoolMu.Lock()
	swPool[n] = p
	swPoolMu.Unlock()
	return p
}

func (sw *slidingWindow) init(n int) {
	if sw.buf != nil {
		return
	}
	if n == 0 {
		n = 32768
	}

	p := slidingWindowPool(n)
	buf, ok := p.Get().([]byte)
	if ok {
		sw.buf = buf[:0]
	} else {
		sw.buf = make([]byte, 0, n)
	}
}

func (sw *slidingWindow) close() {
	if sw.buf == nil {
		return
	}
	swPoolMu.Lock()
	swPool[cap(sw.buf)].Put(sw.buf)
	swPoolMu.Unlock()
	sw.buf = nil
}

func (sw *slidingWindow) write(p []byte) {
	if len(p) >= cap(sw.buf) {
		sw.buf = sw.buf[:cap(sw.buf)]
		p = p[len(p)-cap(sw.buf):]
		copy(sw.buf, p)
		return
	}

	left := cap(sw.buf) - len(sw.buf)
	if left < len(p) {
		spaceNeeded := len(p) - left
		copy(sw.buf, sw.buf[spaceNeeded:])
		sw.buf = sw.buf[:len(sw.buf)-spaceNeeded]
	}
	sw.buf = append(sw.buf, p...)
}

// decompressingReader wraps r (the raw, unmasked byte stream of a single
// data message) with a flate.Reader, restoring the sync-flush tail the
// sender trimmed off before sending. The dictionary is whichever side's
// no_context_takeover flag governs the direction r was read from: c.readSW
// if context is kept across messages, nil otherwise.
func (c *Conn) decompressingReader(r io.Reader) io.Reader {
	noContextTakeover := c.client && c.copts.serverNoContextTakeover ||
		!c.client && c.copts.clientNoContextTakeover

	tr := io.MultiReader(r, strings.NewReader(deflateMessageTail))

	var dict []byte
	if !noContextTakeover {
		c.readSW.init(0)
		dict = c.readSW.buf
	}

	return &flateMessageReader{
		c:                 c,
		fr:                getFlateReader(tr, dict),
		noContextTakeover: noContextTakeover,
	}
}

type flateMessageReader struct {
	c                 *Conn
	fr                io.Reader
	noContextTakeover bool
	returned          bool
}

func (r *flateMessageReader) Read(p []byte) (int, error) {
	if r.returned {
		return 0, io.EOF
	}
	n, err := r.fr.Read(p)
	if n > 0 && !r.noContextTakeover {
		r.c.readSW.write(p[:n])
	}
	if errors.Is(err, io.EOF) {
		r.returned = true
		putFlateReader(r.fr)
	}
	return n, err
}

// compressingWriter wraps dst (the raw frame writer for a single data
// message) with a flate.Writer, trimming the sync-flush tail before it
// reaches the wire so the receiver can restore it per decompressingReader.
func (c *Conn) compressingWriter(dst dataWriteCloser) dataWriteCloser {
	noContextTakeover := c.client && c.copts.clientNoContextTakeover ||
		!c.client && c.copts.serverNoContextTakeover

	tw := &trimLastFourBytesWriter{w: dst}

	var dict []byte
	if !noContextTakeover {
		c.writeSW.init(0)
		dict = c.writeSW.buf
	}

	return &flateMessageWriter{
		c:                 c,
		dst:               dst,
		tw:                tw,
		fw:                getFlateWriter(tw, dict),
		noContextTakeover: noContextTakeover,
	}
}

type flateMessageWriter struct {
	c                 *Conn
	dst               dataWriteCloser
	tw                *trimLastFourBytesWriter
	fw                *flate.Writer
	noContextTakeover bool
}

func (w *flateMessageWriter) Write(p []byte) (int, error) {
	n, err := w.fw.Write(p)
	if n > 0 && !w.noContextTakeover {
		w.c.writeSW.write(p[:n])
	}
	return n, err
}

func (w *flateMessageWriter) close() error {
	if err := w.fw.Flush(); err != nil {
		return err
	}
	w.tw.reset()
	if w.noContextTakeover {
		putFlateWriter(w.fw)
	}
	return w.dst.close()
}
