package ixws

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ixsocket/ixws/internal/errd"
)

// maxControlPayload is the maximum length of a control frame payload.
// https://tools.ietf.org/html/rfc6455#section-5.5
const maxControlPayload = 125

// header represents a WebSocket frame header.
// https://tools.ietf.org/html/rfc6455#section-5.2
type header struct {
	fin    bool
	rsv1   bool
	rsv2   bool
	rsv3   bool
	opcode opcode

	payloadLength int64

	masked  bool
	maskKey [4]byte
}

// readFrameHeader reads a single frame header from r.
func readFrameHeader(r *bufio.Reader) (_ header, err error) {
	defer errd.Wrap(&err, "failed to read frame header")

	b, err := r.ReadByte()
	if err != nil {
		return header{}, err
	}

	var h header
	h.fin = b&(1<<7) != 0
	h.rsv1 = b&(1<<6) != 0
	h.rsv2 = b&(1<<5) != 0
	h.rsv3 = b&(1<<4) != 0
	h.opcode = opcode(b & 0xf)

	b, err = r.ReadByte()
	if err != nil {
		return header{}, err
	}

	h.masked = b&(1<<7) != 0

	payloadLength := b &^ (1 << 7)
	switch {
	case payloadLength < 126:
		h.payloadLength = int64(payloadLength)
	case payloadLength == 126:
		var pl uint16
		err = binary.Read(r, binary.BigEndian, &pl)
		h.payloadLength = int64(pl)
	case payloadLength == 127:
		err = binary.Read(r, binary.BigEndian, &h.payloadLength)
	}
	if err != nil {
		return header{}, err
	}
	if h.payloadLength < 0 {
		return header{}, fmt.Errorf("header has negative payload length: %v", h.payloadLength)
	}

	if h.masked {
		_, err = io.ReadFull(r, h.maskKey[:])
		if err != nil {
			return header{}, err
		}
	}

	return h, nil
}

// writeFrameHeader writes h to w.
func writeFrameHeader(h header, w *bufio.Writer) (err error) {
	defer errd.Wrap(&err, "failed to write frame header")

	var b byte
	if h.fin {
		b |= 1 << 7
	}
	if h.rsv1 {
		b |= 1 << 6
	}
	if h.rsv2 {
		b |= 1 << 5
	}
	if h.rsv3 {
		b |= 1 << 4
	}
	b |= byte(h.opcode)

	if err = w.WriteByte(b); err != nil {
		return err
	}

	lengthByte := byte(0)
	if h.masked {
		lengthByte |= 1 << 7
	}
	switch {
	case h.payloadLength > math.MaxUint16:
		lengthByte |= 127
	case h.payloadLength > 125:
		lengthByte |= 126
	default:
		lengthByte |= byte(h.payloadLength)
	}
	if err = w.WriteByte(lengthByte); err != nil {
		return err
	}

	switch {
	case h.payloadLength > math.MaxUint16:
		err = binary.Write(w, binary.BigEndian, h.payloadLength)
	case h.payloadLength > 125:
		err = binary.Write(w, binary.BigEndian, uint16(h.payloadLength))
	}
	if err != nil {
		return err
	}

	if h.masked {
		if _, err = w.Write(h.maskKey[:]); err != nil {
			return err
		}
	}

	return nil
}
