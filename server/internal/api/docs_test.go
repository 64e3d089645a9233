package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	for _, p := range []string{"/api", "/api/state", "/healthz", "/readyz"} {
		if doc.Paths.Find(p) == nil {
			t.Errorf("path %s missing from document", p)
		}
	}
	if _, ok := doc.Components.Schemas["StatusResponse"]; !ok {
		t.Fatalf("StatusResponse schema missing")
	}
}

func TestOpenAPIHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	OpenAPIHandler()(rr, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(doc["openapi"].(string), "3.") {
		t.Fatalf("unexpected openapi version %v", doc["openapi"])
	}
}

func TestSwaggerHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	SwaggerHandler()(rr, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html, got %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "openapi.json") {
		t.Fatalf("page does not reference openapi.json")
	}
}
