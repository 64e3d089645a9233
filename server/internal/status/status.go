// Package status serves the workbench status endpoint and the JSON error
// contract shared by every /api route.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Covcloud-LLC/rating-workbench/core/logx"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/metrics"
	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
)

// Error codes returned in ErrorResponse.Error.
const (
	CodeDraining         = "draining"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotReady         = "not_ready"
	CodeTimeout          = "timeout"
)

// Response is the body of a successful GET /api.
type Response struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx /api response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler answers GET /api with the configured message.
type Handler struct {
	Message string
	State   *serverstate.Tracker
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.State != nil && h.State.IsDraining() {
		metrics.RecordStatusRequest(CodeDraining)
		w.Header().Set("Retry-After", "5")
		WriteError(w, http.StatusServiceUnavailable, CodeDraining, "server is draining")
		return
	}
	metrics.RecordStatusRequest("ok")
	WriteJSON(w, http.StatusOK, Response{Message: h.Message})
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Log.Error().Err(err).Int("status", code).Msg("write json response")
	}
}

// WriteError writes the JSON error contract.
func WriteError(w http.ResponseWriter, code int, errCode, msg string) {
	WriteJSON(w, code, ErrorResponse{Error: errCode, Message: msg})
}

// NotFound answers unknown /api routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	metrics.RecordStatusRequest(CodeNotFound)
	WriteError(w, http.StatusNotFound, CodeNotFound, "no such endpoint: "+r.URL.Path)
}

// MethodNotAllowed answers requests with an unsupported method. allow lists
// the permitted methods for the Allow header.
func MethodNotAllowed(allow ...string) http.HandlerFunc {
	header := strings.Join(allow, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordStatusRequest(CodeMethodNotAllowed)
		if header != "" {
			w.Header().Set("Allow", header)
		}
		WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	}
}

// Timeout bounds each request to d. A handler that runs past the deadline
// without writing anything gets a 504 in the error contract.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			tw := &timeoutWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))
			if !tw.wrote && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				WriteError(w, http.StatusGatewayTimeout, CodeTimeout, "request timed out after "+d.String())
			}
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter
	wrote bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

func (tw *timeoutWriter) Flush() {
	if f, ok := tw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (tw *timeoutWriter) Unwrap() http.ResponseWriter { return tw.ResponseWriter }
