package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/Covcloud-LLC/rating-workbench/core/logx"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/inflight"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/status"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	BuildSHA  string
	BuildDate string
}

// API serves the health, readiness and state endpoints.
type API struct {
	State      *serverstate.Tracker
	Inflight   *inflight.Counter
	Build      BuildInfo
	InstanceID uuid.UUID
	StartedAt  time.Time
}

// NewAPI returns an API with a fresh instance id.
func NewAPI(state *serverstate.Tracker, counter *inflight.Counter, build BuildInfo) *API {
	return &API{
		State:      state,
		Inflight:   counter,
		Build:      build,
		InstanceID: uuid.New(),
		StartedAt:  time.Now(),
	}
}

// Health is the body of /healthz and a passing /readyz.
type Health struct {
	Status string `json:"status"`
}

// GetHealthz reports liveness. It never consults shared state.
func (a *API) GetHealthz(w http.ResponseWriter, r *http.Request) {
	status.WriteJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetReadyz reports whether this instance should receive traffic.
func (a *API) GetReadyz(w http.ResponseWriter, r *http.Request) {
	st := a.State.Snapshot()
	if st.Draining {
		status.WriteError(w, http.StatusServiceUnavailable, status.CodeDraining, "server is draining")
		return
	}
	if st.Status != serverstate.StatusReady {
		status.WriteError(w, http.StatusServiceUnavailable, status.CodeNotReady, st.Status)
		return
	}
	status.WriteJSON(w, http.StatusOK, Health{Status: st.Status})
}

// HostInfo describes the machine running the server.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
}

// ProcessInfo describes the server process.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int32   `json:"threads"`
}

// StateResponse is the body of /api/state.
type StateResponse struct {
	InstanceID    string       `json:"instance_id"`
	Version       string       `json:"version"`
	BuildSHA      string       `json:"build_sha"`
	BuildDate     string       `json:"build_date"`
	Status        string       `json:"status"`
	Draining      bool         `json:"draining"`
	StartedAt     time.Time    `json:"started_at"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Inflight      int64        `json:"inflight"`
	Host          *HostInfo    `json:"host,omitempty"`
	Process       *ProcessInfo `json:"process,omitempty"`
}

// GetState returns a JSON snapshot of the server.
func (a *API) GetState(w http.ResponseWriter, r *http.Request) {
	status.WriteJSON(w, http.StatusOK, a.Snapshot(r.Context()))
}

// Snapshot collects the state reported by GetState. Host and process details
// are best effort and omitted when the platform does not expose them.
func (a *API) Snapshot(ctx context.Context) StateResponse {
	st := a.State.Snapshot()
	resp := StateResponse{
		InstanceID:    a.InstanceID.String(),
		Version:       a.Build.Version,
		BuildSHA:      a.Build.BuildSHA,
		BuildDate:     a.Build.BuildDate,
		Status:        st.Status,
		Draining:      st.Draining,
		StartedAt:     a.StartedAt.UTC(),
		UptimeSeconds: time.Since(a.StartedAt).Seconds(),
	}
	if a.Inflight != nil {
		resp.Inflight = a.Inflight.Load()
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		resp.Host = &HostInfo{
			Hostname:        hi.Hostname,
			OS:              hi.OS,
			Platform:        hi.Platform,
			PlatformVersion: hi.PlatformVersion,
			UptimeSeconds:   hi.Uptime,
		}
	} else {
		logx.Log.Debug().Err(err).Msg("host info unavailable")
	}
	resp.Process = processInfo(ctx)
	return resp
}

func processInfo(ctx context.Context) *ProcessInfo {
	pid := int32(os.Getpid())
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		logx.Log.Debug().Err(err).Msg("process info unavailable")
		return nil
	}
	info := &ProcessInfo{PID: pid}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		info.RSSBytes = mi.RSS
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		info.CPUPercent = cpu
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		info.Threads = n
	}
	return info
}
