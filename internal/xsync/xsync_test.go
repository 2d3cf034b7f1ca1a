package xsync

import (
	"sync"
	"testing"

	"github.com/ixsocket/ixws/internal/test/assert"
)

func TestInt64(t *testing.T) {
	t.Parallel()

	var i Int64
	assert.Equal(t, "zero value", int64(0), i.Load())

	i.Store(5)
	assert.Equal(t, "store", int64(5), i.Load())

	assert.Equal(t, "cas wrong old", false, i.CAS(1, 2))
	assert.Equal(t, "cas right old", true, i.CAS(5, 2))
	assert.Equal(t, "cas", int64(2), i.Load())

	assert.Equal(t, "increment", int64(3), i.Increment(1))
}

func TestInt64Concurrent(t *testing.T) {
	t.Parallel()

	var i Int64
	var wg sync.WaitGroup
	for n := 0; n < 100; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i.Increment(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, "total", int64(100), i.Load())
}
