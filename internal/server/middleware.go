package server

import (
	"net/http"
	"time"

	"github.com/wayward-wolves/chronocall/internal/instrumentation"
)

// routes bounds the path label on http metrics.
var routes = map[string]bool{
	"/":                 true,
	"/login":            true,
	"/logout":           true,
	"/oauth/callback":   true,
	"/api/turn":         true,
	"/api/session":      true,
	"/api/help":         true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// measure records method, route, status and latency of every request.
func measure(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if !routes[path] {
			path = "other"
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, status, time.Since(start))
	})
}
