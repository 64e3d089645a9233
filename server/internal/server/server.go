package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Covcloud-LLC/rating-workbench/server/internal/api"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/config"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/inflight"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/metrics"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/status"
)

// Deps are the runtime dependencies shared between main and the handler.
type Deps struct {
	State    *serverstate.Tracker
	Inflight *inflight.Counter
	Registry *prometheus.Registry
	Build    api.BuildInfo
	// InstanceID identifies this process in /api/state. A random id is used
	// when it is zero.
	InstanceID uuid.UUID
}

// New constructs the HTTP handler for the server. Missing deps are filled
// with in-memory defaults.
func New(cfg config.ServerConfig, deps Deps) http.Handler {
	if deps.State == nil {
		deps.State = serverstate.NewTracker(nil)
	}
	if deps.Inflight == nil {
		deps.Inflight = inflight.New(metrics.SetInflight)
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if cfg.Message == "" {
		cfg.Message = config.DefaultMessage
	}

	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}))
	}
	for _, m := range api.MiddlewareChain() {
		r.Use(m)
	}
	r.Use(deps.Inflight.Middleware)
	if cfg.RequestTimeout > 0 {
		r.Use(status.Timeout(cfg.RequestTimeout))
	}

	impl := api.NewAPI(deps.State, deps.Inflight, deps.Build)
	if deps.InstanceID != uuid.Nil {
		impl.InstanceID = deps.InstanceID
	}
	statusHandler := &status.Handler{Message: cfg.Message, State: deps.State}

	r.Get("/healthz", impl.GetHealthz)
	r.Get("/readyz", impl.GetReadyz)
	r.Route("/api", func(ar chi.Router) {
		ar.NotFound(status.NotFound)
		ar.MethodNotAllowed(status.MethodNotAllowed(http.MethodGet))
		ar.Get("/", statusHandler.ServeHTTP)
		ar.Get("/state", impl.GetState)
		ar.Get("/openapi.json", api.OpenAPIHandler())
		ar.Get("/docs", api.SwaggerHandler())
	})
	r.Get("/", StatePageHandler())

	if cfg.SharedMetrics() {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

// NewRegistry returns a Prometheus registry with the server and Go runtime
// collectors registered.
func NewRegistry() *prometheus.Registry {
	preg := prometheus.NewRegistry()
	metrics.Register(preg)
	preg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return preg
}

// MetricsHandler serves /metrics for a dedicated metrics listener.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
