package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "workbench_server_build_info",
			Help:        "Build information for the workbench server",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	statusRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_status_requests_total",
			Help: "Status endpoint requests by outcome",
		},
		[]string{"outcome"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workbench_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "code"},
	)

	inflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workbench_http_requests_inflight",
			Help: "Number of in-flight HTTP requests",
		},
	)

	draining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workbench_server_draining",
			Help: "1 while the server is draining",
		},
	)
)

// Register registers all server metrics with r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, statusRequests, httpDuration, inflight, draining)
}

// SetServerBuildInfo sets the build info metric for the server.
func SetServerBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordStatusRequest counts a status request; outcome is "ok" or an error code.
func RecordStatusRequest(outcome string) {
	statusRequests.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the duration of a request against its route pattern.
func ObserveRequest(route, code string, d time.Duration) {
	httpDuration.WithLabelValues(route, code).Observe(d.Seconds())
}

// SetInflight publishes the in-flight request count.
func SetInflight(n int64) { inflight.Set(float64(n)) }

// SetDraining publishes the drain flag.
func SetDraining(v bool) {
	if v {
		draining.Set(1)
		return
	}
	draining.Set(0)
}
