// Package xsync provides small atomic helpers used by Conn to avoid
// sprinkling sync.Mutex around fields that are only ever read, set, or
// compare-and-swapped.
package xsync

import "sync/atomic"

// Int64 is an atomically accessed int64, zero value ready to use.
type Int64 struct {
	v int64
}

// Load returns the current value.
func (i *Int64) Load() int64 {
	return atomic.LoadInt64(&i.v)
}

// Store sets the value unconditionally.
func (i *Int64) Store(v int64) {
	atomic.StoreInt64(&i.v, v)
}

// CAS sets the value to new if it is currently old, reporting whether it
// did so.
func (i *Int64) CAS(old, new int64) bool {
	return atomic.CompareAndSwapInt64(&i.v, old, new)
}

// Increment adds delta to the value and returns the new value.
func (i *Int64) Increment(delta int64) int64 {
	return atomic.AddInt64(&i.v, delta)
}
