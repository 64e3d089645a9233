// Package statusclient checks a rating workbench service once and exposes
// the result as a short human-readable status string.
package statusclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Covcloud-LLC/rating-workbench/core/logx"
)

const (
	// Checking is the status shown before the fetch resolves.
	Checking = "checking..."
	// Unavailable is the status shown when the fetch fails for any reason.
	Unavailable = "API not available"
)

// DefaultTimeout bounds a single fetch unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets the client used for the fetch.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout sets the per-fetch deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// WithOnUpdate registers fn to be called once with the resolved status.
// It is not called when the checker is closed before the fetch resolves.
func WithOnUpdate(fn func(status string)) Option {
	return func(c *Checker) { c.onUpdate = fn }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Checker) { c.log = l }
}

// Checker owns a single status fetch tied to its own lifetime. The status
// moves from Checking to either the service message or Unavailable at most
// once; results arriving after Close are discarded.
type Checker struct {
	endpoint string
	hc       *http.Client
	timeout  time.Duration
	onUpdate func(string)
	log      zerolog.Logger

	mu       sync.Mutex
	status   string
	err      error
	resolved bool
	closed   bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// New returns a Checker for the service at baseURL. The returned checker
// reports Checking until Start is called and the fetch resolves.
func New(baseURL string, opts ...Option) (*Checker, error) {
	endpoint, err := endpointURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Checker{
		endpoint: endpoint,
		hc:       http.DefaultClient,
		timeout:  DefaultTimeout,
		log:      logx.Component("statusclient"),
		status:   Checking,
		cancel:   func() {},
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Start launches the fetch. Only the first call has an effect. Cancelling ctx
// abandons the fetch the same way Close does.
func (c *Checker) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			close(c.done)
			return
		}
		fctx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.mu.Unlock()
		go c.run(fctx)
	})
}

func (c *Checker) run(ctx context.Context) {
	defer close(c.done)
	defer c.cancel()

	fctx := ctx
	if c.timeout > 0 {
		var stop context.CancelFunc
		fctx, stop = context.WithTimeout(ctx, c.timeout)
		defer stop()
	}
	msg, err := fetch(fctx, c.hc, c.endpoint)

	// The lifetime ended while the request was in flight; drop the result.
	if ctx.Err() != nil {
		c.log.Debug().Str("endpoint", c.endpoint).Msg("status check abandoned")
		return
	}

	status := msg
	if err != nil {
		status = Unavailable
		var se *StatusError
		if errors.As(err, &se) {
			c.log.Warn().Str("endpoint", c.endpoint).Int("status", se.Code).Msg("status check failed")
		} else {
			c.log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("status check failed")
		}
	} else {
		c.log.Debug().Str("endpoint", c.endpoint).Str("message", msg).Msg("status check succeeded")
	}

	c.mu.Lock()
	if c.closed || c.resolved {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.err = err
	c.resolved = true
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn(status)
	}
}

// Status returns the current status string.
func (c *Checker) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the fetch error once resolved, or nil.
func (c *Checker) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Resolved reports whether the fetch outcome has been recorded.
func (c *Checker) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// Done is closed when the fetch goroutine exits, whether it resolved or was
// abandoned. It is also closed by Close on a checker that was never started.
func (c *Checker) Done() <-chan struct{} { return c.done }

// Wait blocks until the fetch finishes or ctx ends and returns the status at
// that point together with the fetch error, if any.
func (c *Checker) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.status, c.err
	case <-ctx.Done():
		return c.Status(), ctx.Err()
	}
}

// Close cancels an in-flight fetch and waits for it to exit. The status is
// left untouched. Close is safe to call more than once.
func (c *Checker) Close() {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	// Consume the start slot so a later Start is a no-op.
	c.startOnce.Do(func() { close(c.done) })
	cancel()
	<-c.done
}
