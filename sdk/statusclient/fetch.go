package statusclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Path is the status endpoint relative to the service base URL.
const Path = "/api"

// maxBody bounds how much of a status response is read.
const maxBody = 64 << 10

type statusBody struct {
	Message *string `json:"message"`
}

// Fetch performs a single GET of Path below baseURL and returns the message
// field. Any failure is reported as an error wrapping ErrUnavailable; there is
// no retry.
func Fetch(ctx context.Context, hc *http.Client, baseURL string) (string, error) {
	endpoint, err := endpointURL(baseURL)
	if err != nil {
		return "", unavailable("invalid base url", err)
	}
	return fetch(ctx, hc, endpoint)
}

func fetch(ctx context.Context, hc *http.Client, endpoint string) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", unavailable("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return "", unavailable("request", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return "", &StatusError{Code: resp.StatusCode}
	}
	var body statusBody
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	if err := dec.Decode(&body); err != nil {
		return "", unavailable("decode", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", unavailable("decode", errors.New("trailing data after json body"))
	}
	if body.Message == nil {
		return "", unavailable("decode", errors.New("missing message field"))
	}
	return *body.Message, nil
}

// endpointURL validates baseURL and joins Path onto it.
func endpointURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	u.Path = strings.TrimRight(u.Path, "/") + Path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
