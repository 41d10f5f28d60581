package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthCheck reports "" when healthy, otherwise a short status.
type HealthCheck func() string

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
	checks        []namedCheck
}

type namedCheck struct {
	name  string
	check HealthCheck
}

// NewHealthChecker creates a HealthChecker that starts ready. Readiness
// fails while marked not ready or once sc has been shut down.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	h.AddCheck("ready", func() string {
		if !h.ready.Load() {
			return healthStatusNotReady
		}
		return ""
	})
	h.AddCheck("shutdown", func() string {
		if h.serverContext != nil && h.serverContext.IsShutdown() {
			return healthStatusShuttingDown
		}
		return ""
	})
	return h
}

// AddCheck adds a readiness check. Not safe to call while serving.
func (h *HealthChecker) AddCheck(name string, check HealthCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// evaluate runs every check. status is the first failure, or ok.
func (h *HealthChecker) evaluate() (status string, results map[string]string) {
	status = healthStatusOK
	results = make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		res := c.check()
		if res == "" {
			results[c.name] = healthStatusOK
			continue
		}
		results[c.name] = res
		if status == healthStatusOK {
			status = res
		}
	}
	return status, results
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds uptime and the number of live web sessions.
type DetailedHealthResponse struct {
	HealthResponse
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

// LivenessHandler serves /healthz. It only reports that the process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.evaluate()
		resp := HealthResponse{Status: status, Checks: checks}
		if status != healthStatusOK {
			resp.Status = healthStatusNotReady
		}
		writeHealth(w, statusCode(status), resp)
	})
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.evaluate()
		resp := DetailedHealthResponse{
			HealthResponse: HealthResponse{Status: status, Checks: checks},
			Uptime:         time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.serverContext != nil && h.serverContext.Sessions() != nil {
			resp.Sessions = h.serverContext.Sessions().Len()
		}
		writeHealth(w, statusCode(status), resp)
	})
}

// RegisterHealthEndpoints registers the probe endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func statusCode(status string) int {
	if status == healthStatusOK {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeHealth(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
