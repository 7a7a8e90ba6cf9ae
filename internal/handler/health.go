package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// readyTimeout bounds one readiness probe. Orchestrators usually time out
// their own probe after a few seconds.
const readyTimeout = 3 * time.Second

// Pinger is anything the readiness probe can check: the SQL store, Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// componentHealth is the result of one dependency check.
type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

type healthReport struct {
	Status     string                     `json:"status"`
	Components map[string]componentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler takes the named dependencies readiness depends on.
// Nil pingers are skipped so optional backends can be passed unconditionally.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: make(map[string]Pinger, len(checks))}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// HandleLive reports that the process is serving requests.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReady pings every dependency concurrently and answers 503 if any
// is down.
//
// HTTP: GET /readyz
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	report := h.run(ctx)
	status := http.StatusOK
	if report.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (h *HealthHandler) run(ctx context.Context) healthReport {
	report := healthReport{
		Status:     "up",
		Components: make(map[string]componentHealth, len(h.checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, p := range h.checks {
		g.Go(func() error {
			start := time.Now()
			c := componentHealth{Status: "up"}
			if err := p.Ping(ctx); err != nil {
				c.Status = "down"
				c.Message = err.Error()
			}
			c.Latency = time.Since(start).Round(time.Millisecond).String()

			mu.Lock()
			report.Components[name] = c
			if c.Status == "down" {
				report.Status = "down"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}
