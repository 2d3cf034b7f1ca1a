// Package wspb provides protobuf message helpers on top of an ixws.Conn.
package wspb

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"

	"github.com/ixsocket/ixws"
)

// Read reads a single protobuf binary message from c into v. Messages
// larger than 32768 bytes are rejected.
func Read(ctx context.Context, c *ixws.Conn, v proto.Message) error {
	if err := read(ctx, c, v); err != nil {
		return fmt.Errorf("failed to read protobuf: %w", err)
	}
	return nil
}

func read(ctx context.Context, c *ixws.Conn, v proto.Message) error {
	typ, r, err := c.Reader(ctx)
	if err != nil {
		return err
	}
	if typ != ixws.MessageBinary {
		return fmt.Errorf("unexpected frame type for protobuf (expected %v): %v", ixws.MessageBinary, typ)
	}

	b, err := io.ReadAll(io.LimitReader(r, 32768+1))
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	if len(b) > 32768 {
		return fmt.Errorf("protobuf message larger than 32768 bytes")
	}
	if err := proto.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to unmarshal protobuf: %w", err)
	}
	return nil
}

// Write marshals v as protobuf and writes it to c as a single binary
// message.
func Write(ctx context.Context, c *ixws.Conn, v proto.Message) error {
	if err := write(ctx, c, v); err != nil {
		return fmt.Errorf("failed to write protobuf: %w", err)
	}
	return nil
}

func write(ctx context.Context, c *ixws.Conn, v proto.Message) error {
	b, err := proto.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal protobuf: %w", err)
	}

	w, err := c.Writer(ctx, ixws.MessageBinary)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Close()
}
