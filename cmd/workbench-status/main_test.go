package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Covcloud-LLC/rating-workbench/sdk/statusclient"
)

func TestRunPrintsServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer ts.Close()

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--url", ts.URL, "--verbose", "--log-level", "none"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code = %d; stderr=%s", code, errOut.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != statusclient.Checking || lines[1] != "ok" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--url", ts.URL, "--log-level", "none"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("exit code = %d; want 1", code)
	}
	if got := strings.TrimSpace(out.String()); got != statusclient.Unavailable {
		t.Fatalf("output = %q", got)
	}
}

func TestRunUsageErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"--url", "not a url", "--log-level", "none"}, &out, &errOut); code != 2 {
		t.Fatalf("invalid url exit code = %d; want 2", code)
	}
	if code := run(context.Background(), []string{"--bogus"}, &out, &errOut); code != 2 {
		t.Fatalf("unknown flag exit code = %d; want 2", code)
	}
	out.Reset()
	if code := run(context.Background(), []string{"--version"}, &out, &errOut); code != 0 || !strings.Contains(out.String(), "version=") {
		t.Fatalf("version: code=%d out=%q", code, out.String())
	}
}

func TestRunInterrupted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errOut bytes.Buffer
	if code := run(ctx, []string{"--url", ts.URL, "--log-level", "none"}, &out, &errOut); code != 1 {
		t.Fatalf("exit code = %d; want 1", code)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunExitCodeIgnoresMessageText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"` + statusclient.Unavailable + `"}`))
	}))
	defer ts.Close()

	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"--url", ts.URL, "--log-level", "none"}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d; want 0 for a successful check", code)
	}
	if got := strings.TrimSpace(out.String()); got != statusclient.Unavailable {
		t.Fatalf("output = %q", got)
	}
}
