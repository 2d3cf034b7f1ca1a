package ixws

import (
	"crypto/rand"
	"encoding/binary"
)

// maskBytes applies the WebSocket masking algorithm (RFC 6455 §5.3) to p
// in place using key, starting at position pos in the key (pos is always
// in [0,4) on entry). It returns the position to resume at for the next
// call, so a payload split across multiple reads/writes can be
// (un)masked incrementally without buffering the whole frame.
func maskBytes(key [4]byte, pos int, p []byte) int {
	if len(p) == 0 {
		return pos & 3
	}

	// Align to a 4-byte boundary so the bulk loop below always XORs
	// against the key starting at position 0.
	for len(p) > 0 && pos&3 != 0 {
		p[0] ^= key[pos&3]
		pos++
		p = p[1:]
	}

	key32 := binary.LittleEndian.Uint32(key[:])
	for len(p) >= 4 {
		v := binary.LittleEndian.Uint32(p)
		binary.LittleEndian.PutUint32(p, v^key32)
		p = p[4:]
		pos += 4
	}

	for i := range p {
		p[i] ^= key[pos&3]
		pos++
	}

	return pos & 3
}

// newMaskKey derives a random 32-bit masking key. Clients must mask every
// frame they send (RFC 6455 §5.1); servers must not.
func newMaskKey() ([4]byte, error) {
	var b [4]byte
	_, err := rand.Read(b[:])
	return b, err
}
