// Package health provides liveness and readiness probe endpoints.
//
// Checks run on demand when a probe endpoint is hit, each bounded by its own
// timeout. That keeps the package free of background goroutines, which suits
// a locally run facade better than periodically polled probes.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for the process.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health in the not-ready state. Call SetReady(true) once
// initialization is complete.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that decides whether the process is
// alive at all (e.g. goroutine count).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check that decides whether the process can
// serve traffic (e.g. storage reachable).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. Readiness checks only run while the
// gate is open; during startup and shutdown drain the endpoint fails fast.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()
	serve(w, r, checks)
}

// ReadyEndpoint serves the readiness probe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeResult(w, http.StatusServiceUnavailable, map[string]string{"service": "not ready"})
		return
	}

	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()
	serve(w, r, checks)
}

func serve(w http.ResponseWriter, r *http.Request, checks []check) {
	results := make(map[string]string, len(checks))
	status := http.StatusOK

	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()

		if err != nil {
			results[c.name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			results[c.name] = "ok"
		}
	}

	writeResult(w, status, results)
}

func writeResult(w http.ResponseWriter, status int, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	state := "ok"
	if status != http.StatusOK {
		state = "unavailable"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": state,
		"checks": checks,
	})
}

// GoroutineCountCheck returns a liveness check that fails when the process
// has more than limit goroutines.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(ctx context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return fmt.Errorf("too many goroutines: %d > %d", n, limit)
		}
		return nil
	}
}
