// Package health provides liveness and readiness endpoints backed by
// periodic dependency checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger checks one dependency. Satisfied by the Postgres pool and the Redis
// token store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check manages health check functionality.
type Check struct {
	deps          map[string]Pinger
	logger        *zap.Logger
	mu            sync.RWMutex
	ready         bool
	statuses      map[string]string
	checkInterval time.Duration
	stop          chan struct{}
}

// NewCheck creates a health check over the named dependencies and starts the
// background checker.
func NewCheck(deps map[string]Pinger, logger *zap.Logger) *Check {
	hc := &Check{
		deps:          deps,
		logger:        logger,
		statuses:      make(map[string]string),
		checkInterval: 5 * time.Second,
		stop:          make(chan struct{}),
	}

	hc.runChecks()
	go hc.backgroundCheck()

	return hc
}

// Stop halts the background checker.
func (hc *Check) Stop() {
	close(hc.stop)
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler handles GET /api/health. Returns 200 while the process is
// running.
func (hc *Check) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready. Returns 200 when every dependency is
// reachable.
func (hc *Check) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hc.mu.RLock()
	ready := hc.ready
	checks := make(map[string]string, len(hc.statuses))
	for k, v := range hc.statuses {
		checks[k] = v
	}
	hc.mu.RUnlock()

	resp := ReadinessResponse{Status: "ready", Checks: checks}
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		resp.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(resp)
}

// IsReady returns the current readiness status.
func (hc *Check) IsReady() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.ready
}

func (hc *Check) backgroundCheck() {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hc.runChecks()
		case <-hc.stop:
			return
		}
	}
}

func (hc *Check) runChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ready := true
	statuses := make(map[string]string, len(hc.deps))
	for name, dep := range hc.deps {
		if err := dep.Ping(ctx); err != nil {
			ready = false
			statuses[name] = "unhealthy"
			hc.logger.Warn("health check failed",
				zap.String("dependency", name), zap.Error(err))
		} else {
			statuses[name] = "healthy"
		}
	}

	hc.mu.Lock()
	hc.ready = ready
	hc.statuses = statuses
	hc.mu.Unlock()
}
