package ixws

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"
)

// TestAutoFragmentation checks that a single large Write is split into
// successive maxFramePayload-sized frames, with fin set only on the last
// one, instead of being emitted as one arbitrarily large frame.
func TestAutoFragmentation(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	type acceptResult struct {
		br  *bufio.Reader
		err error
	}
	resultCh := make(chan acceptResult, 1)
	go func() {
		raw, err := ln.Accept()
		if err != nil {
			resultCh <- acceptResult{err: err}
			return
		}
		br, _, _, err := serverHandshake(raw, &AcceptOptions{})
		resultCh <- acceptResult{br: br, err: err}
	}()

	url := "ws://" + ln.Addr().String() + "/"
	clientConn, err := Dial(context.Background(), url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer clientConn.Close(StatusNormalClosure, "")

	res := <-resultCh
	if res.err != nil {
		t.Fatal(res.err)
	}
	br := res.br

	const msgLen = maxFramePayload*2 + 100

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clientConn.Write(ctx, MessageBinary, make([]byte, msgLen)); err != nil {
		t.Fatal(err)
	}

	var frames []header
	var total int64
	for {
		h, err := readFrameHeader(br)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.CopyN(io.Discard, br, h.payloadLength); err != nil {
			t.Fatal(err)
		}
		frames = append(frames, h)
		total += h.payloadLength
		if h.fin {
			break
		}
	}

	if total != msgLen {
		t.Fatalf("frames carried %d payload bytes total, want %d", total, msgLen)
	}

	const wantFrames = 3 // ceil(msgLen / maxFramePayload)
	if len(frames) != wantFrames {
		t.Fatalf("got %d frames, want %d", len(frames), wantFrames)
	}
	for i, h := range frames {
		last := i == len(frames)-1
		if h.fin != last {
			t.Fatalf("frame %d: fin = %v, want %v", i, h.fin, last)
		}
		if !last && h.payloadLength != maxFramePayload {
			t.Fatalf("frame %d: payload length = %d, want %d", i, h.payloadLength, maxFramePayload)
		}
	}
}
