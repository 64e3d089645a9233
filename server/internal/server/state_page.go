package server

import (
	_ "embed"
	"net/http"
)

//go:embed state.html
var stateHTML []byte

// StatePageHandler serves the embedded status page. The page checks /api
// once on load and shows the result next to the /api/state snapshot.
func StatePageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(stateHTML)
	}
}
