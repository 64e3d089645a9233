package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Covcloud-LLC/rating-workbench/core/logx"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/inflight"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/metrics"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
)

// Drainer turns termination signals into a graceful drain. The first signal
// received by this process marks the state as draining and waits for
// in-flight requests; the second terminates at once. The decision uses a
// flag local to the process, never the shared store.
type Drainer struct {
	State    *serverstate.Tracker
	Inflight *inflight.Counter
	// Timeout bounds the wait for in-flight requests. Zero terminates on the
	// first signal and a negative value waits indefinitely.
	Timeout time.Duration
	// Terminate is called once the server should shut down.
	Terminate func()

	mu      sync.Mutex
	started bool
	once    sync.Once
}

// Signal handles one termination signal.
func (d *Drainer) Signal(ctx context.Context) {
	d.mu.Lock()
	second := d.started
	d.started = true
	d.mu.Unlock()

	if second || d.Timeout == 0 {
		logx.Log.Warn().Msg("termination requested")
		d.terminate()
		return
	}
	d.State.StartDrain()
	metrics.SetDraining(true)
	logx.Log.Info().Int64("inflight", d.Inflight.Load()).Msg("drain requested")

	waitCtx := ctx
	var stop context.CancelFunc
	if d.Timeout > 0 {
		logx.Log.Info().Dur("timeout", d.Timeout).Msg("draining; send SIGTERM again to terminate immediately")
		waitCtx, stop = context.WithTimeout(ctx, d.Timeout)
	} else {
		logx.Log.Info().Msg("draining; send SIGTERM again to terminate immediately")
	}
	go func() {
		if stop != nil {
			defer stop()
		}
		if d.Inflight.WaitForZero(waitCtx) {
			logx.Log.Info().Msg("drain complete; terminating")
			d.terminate()
			return
		}
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			logx.Log.Warn().Int64("inflight", d.Inflight.Load()).Msg("drain timeout exceeded; terminating")
			d.terminate()
		}
	}()
}

// Draining reports whether this process has received a termination signal.
func (d *Drainer) Draining() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *Drainer) terminate() {
	d.once.Do(func() {
		if d.Terminate != nil {
			d.Terminate()
		}
	})
}
