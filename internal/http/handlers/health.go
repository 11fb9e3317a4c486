package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck is one dependency check, such as a Redis or Postgres ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports service liveness and dependency status.
type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			resp[c.Name] = err.Error()
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp[c.Name] = "ok"
	}
	writeJSON(w, status, resp)
}
