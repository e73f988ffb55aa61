package internal

import (
	"context"
	"net/url"
	"sync"
)

// CallbackLatch receives the redirect that ends the user authorization step
// of a three-legged flow. Only the first delivery is kept; later deliveries
// are ignored, so the waiting side resumes exactly once.
type CallbackLatch struct {
	once  sync.Once
	url   *url.URL
	ready chan struct{}
}

// NewCallbackLatch creates a latch ready for use.
func NewCallbackLatch() *CallbackLatch {
	return &CallbackLatch{
		ready: make(chan struct{}),
	}
}

// Deliver records u and wakes the waiters. It reports whether this call was
// the first delivery.
func (l *CallbackLatch) Deliver(u *url.URL) bool {
	delivered := false
	l.once.Do(func() {
		l.url = u
		close(l.ready)
		delivered = true
	})
	return delivered
}

// Wait blocks until a callback is delivered or ctx is done. Abandoning the
// wait leaves the latch usable by another waiter.
func (l *CallbackLatch) Wait(ctx context.Context) (*url.URL, error) {
	select {
	case <-l.ready:
		return l.url, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Delivered returns true if a callback has been delivered.
func (l *CallbackLatch) Delivered() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}
