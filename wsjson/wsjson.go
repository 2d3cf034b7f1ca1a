// Package wsjson provides JSON message helpers on top of an ixws.Conn.
package wsjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ixsocket/ixws"
)

// Read reads a single JSON text message from c into v. Messages larger
// than 32768 bytes are rejected.
func Read(ctx context.Context, c *ixws.Conn, v interface{}) error {
	if err := read(ctx, c, v); err != nil {
		return fmt.Errorf("failed to read json: %w", err)
	}
	return nil
}

func read(ctx context.Context, c *ixws.Conn, v interface{}) error {
	typ, r, err := c.Reader(ctx)
	if err != nil {
		return err
	}
	if typ != ixws.MessageText {
		_ = c.Close(ixws.StatusUnsupportedData, "can only accept text messages")
		return fmt.Errorf("unexpected frame type for json (expected %v): %v", ixws.MessageText, typ)
	}

	r = io.LimitReader(r, 32768)
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	if _, err := r.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		return errors.New("more data than expected in json message")
	}
	return nil
}

// Write encodes v as JSON and writes it to c as a single text message.
func Write(ctx context.Context, c *ixws.Conn, v interface{}) error {
	if err := write(ctx, c, v); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

func write(ctx context.Context, c *ixws.Conn, v interface{}) error {
	w, err := c.Writer(ctx, ixws.MessageText)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return w.Close()
}
