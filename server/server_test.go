package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/ixsocket/ixws"
	"github.com/ixsocket/ixws/internal/test/assert"
	"github.com/ixsocket/ixws/server"
)

func TestServerEcho(t *testing.T) {
	t.Parallel()

	s, err := server.Listen("tcp", "127.0.0.1:0", func(id server.ConnID, c *ixws.Conn, state interface{}) {
		defer c.Close(ixws.StatusInternalError, "")
		typ, p, err := c.Read(context.Background())
		if err != nil {
			return
		}
		_ = c.Write(context.Background(), typ, p)
	}, nil)
	assert.Success(t, err)
	go s.Start()
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws://" + s.Addr().String() + "/"
	c, err := ixws.Dial(ctx, url, nil)
	assert.Success(t, err)
	defer c.Close(ixws.StatusInternalError, "")

	err = c.Write(ctx, ixws.MessageText, []byte("hello"))
	assert.Success(t, err)

	typ, p, err := c.Read(ctx)
	assert.Success(t, err)
	assert.Equal(t, "message type", ixws.MessageText, typ)
	assert.Equal(t, "echoed payload", "hello", string(p))

	err = c.Close(ixws.StatusNormalClosure, "")
	assert.Success(t, err)
}
