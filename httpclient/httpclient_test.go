package httpclient_test

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ixsocket/ixws/httpclient"
	"github.com/ixsocket/ixws/internal/test/assert"
)

func TestGetPlain(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer s.Close()

	c := httpclient.New(&httpclient.Options{ConnectTimeout: time.Second, TransferTimeout: time.Second})
	resp, err := c.Get(context.Background(), s.URL)
	assert.Success(t, err)
	assert.Equal(t, "status", 200, resp.StatusCode)
	assert.Equal(t, "body", "hello", string(resp.Body))
}

func TestGetChunkedGzip(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		gz := gzip.NewWriter(w)
		gz.Write([]byte("hello chunked"))
		gz.Close()
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer s.Close()

	c := httpclient.New(nil)
	resp, err := c.Get(context.Background(), s.URL)
	assert.Success(t, err)
	assert.Equal(t, "body", "hello chunked", string(resp.Body))
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	var target string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landed")
	})
	s := httptest.NewServer(mux)
	defer s.Close()
	target = s.URL + "/end"

	c := httpclient.New(&httpclient.Options{MaxRedirects: 1})
	resp, err := c.Get(context.Background(), s.URL+"/start")
	assert.Success(t, err)
	assert.Equal(t, "body", "landed", string(resp.Body))
}
