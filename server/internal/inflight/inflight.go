package inflight

import (
	"context"
	"net/http"
	"sync"
)

// Counter tracks in-flight requests so shutdown can wait for them.
type Counter struct {
	mu       sync.Mutex
	count    int64
	zeroCh   chan struct{}
	onChange func(int64)
}

// New returns a Counter. onChange, when non-nil, is called with the new count
// after every change while the counter lock is held, so it must not block.
func New(onChange func(int64)) *Counter {
	zero := make(chan struct{})
	close(zero)
	return &Counter{zeroCh: zero, onChange: onChange}
}

// Inc increments the counter.
func (c *Counter) Inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.zeroCh == nil || c.count == 0 {
		c.zeroCh = make(chan struct{})
	}
	c.count++
	c.notify()
}

// Dec decrements the counter. Calls beyond zero are ignored.
func (c *Counter) Dec() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return
	}
	c.count--
	if c.count == 0 && c.zeroCh != nil {
		close(c.zeroCh)
	}
	c.notify()
}

func (c *Counter) notify() {
	if c.onChange != nil {
		c.onChange(c.count)
	}
}

// Load returns the current in-flight count.
func (c *Counter) Load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// WaitForZero blocks until the count is zero or ctx is done and reports
// whether zero was reached.
func (c *Counter) WaitForZero(ctx context.Context) bool {
	c.mu.Lock()
	if c.count == 0 {
		c.mu.Unlock()
		return true
	}
	ch := c.zeroCh
	c.mu.Unlock()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// Middleware counts each request for its duration.
func (c *Counter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Inc()
		defer c.Dec()
		next.ServeHTTP(w, r)
	})
}
