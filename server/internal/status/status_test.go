package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Covcloud-LLC/rating-workbench/server/internal/serverstate"
)

func TestHandlerReturnsMessage(t *testing.T) {
	h := &Handler{Message: "ok", State: serverstate.NewTracker(nil)}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body Response
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "ok" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestHandlerDraining(t *testing.T) {
	st := serverstate.NewTracker(nil)
	st.SetStatus(serverstate.StatusReady)
	st.StartDrain()
	h := &Handler{Message: "ok", State: st}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != CodeDraining || body.Message == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var nf ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &nf); err != nil || nf.Error != CodeNotFound {
		t.Fatalf("unexpected 404 body %q: %v", rr.Body.String(), err)
	}

	rr = httptest.NewRecorder()
	MethodNotAllowed(http.MethodGet, http.MethodHead)(rr, httptest.NewRequest(http.MethodPost, "/api", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("Allow = %q", allow)
	}
	var mna ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &mna); err != nil || mna.Error != CodeMethodNotAllowed {
		t.Fatalf("unexpected 405 body %q: %v", rr.Body.String(), err)
	}
}

func TestTimeoutWritesErrorContract(t *testing.T) {
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != CodeTimeout {
		t.Fatalf("error = %q; want %q", body.Error, CodeTimeout)
	}
}

func TestTimeoutKeepsWrittenResponse(t *testing.T) {
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		<-r.Context().Done()
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestTimeoutPassesFastHandlers(t *testing.T) {
	h := Timeout(time.Second)(&Handler{Message: "ok"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
