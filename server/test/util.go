// Package test holds end-to-end tests that run full server handlers.
package test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Covcloud-LLC/rating-workbench/server/internal/api"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/config"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/inflight"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/server"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
)

// replica is one running server instance.
type replica struct {
	srv        *httptest.Server
	state      *serverstate.Tracker
	store      *serverstate.RedisStore
	inflight   *inflight.Counter
	drainer    *server.Drainer
	terminated chan struct{}
}

// startReplica runs a server whose state lives in the redis at redisAddr,
// wired the way workbench-server wires it.
func startReplica(t *testing.T, redisAddr, message string, drainTimeout time.Duration) *replica {
	t.Helper()
	id := uuid.New()
	rs, err := serverstate.NewRedisStore(context.Background(), redisAddr, id.String())
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })
	st := serverstate.NewTracker(rs)
	counter := inflight.New(nil)
	cfg := config.ServerConfig{Port: 8080, MetricsAddr: ":8080", Message: message, RequestTimeout: 5 * time.Second}
	h := server.New(cfg, server.Deps{State: st, Inflight: counter, InstanceID: id, Build: api.BuildInfo{Version: "e2e"}})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	r := &replica{srv: srv, state: st, store: rs, inflight: counter, terminated: make(chan struct{})}
	r.drainer = &server.Drainer{
		State:     st,
		Inflight:  counter,
		Timeout:   drainTimeout,
		Terminate: func() { close(r.terminated) },
	}
	st.SetStatus(serverstate.StatusReady)
	return r
}

// isTerminated reports whether the replica's drainer asked it to shut down.
func (r *replica) isTerminated() bool {
	select {
	case <-r.terminated:
		return true
	default:
		return false
	}
}
