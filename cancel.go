package ixws

import (
	"context"
	"time"
)

// withTimeoutCancel returns a context that is canceled when either ctx is
// canceled or timeout elapses, whichever comes first. It mirrors the
// cancellation-token pattern of combining an externally-settable abort
// flag with a deadline into a single predicate callers poll.
func withTimeoutCancel(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
