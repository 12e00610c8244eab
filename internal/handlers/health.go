package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/models"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency the gateway needs.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthReport struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks,omitempty"`
	ViewBacklog *int64            `json:"viewBacklog,omitempty"`
}

type HealthHandler struct {
	checks  []HealthCheck
	backlog func(ctx context.Context) (int64, error)
	log     *logger.Logger
}

// NewHealthHandler reports 503 when any check fails. backlog may be nil.
func NewHealthHandler(checks []HealthCheck, backlog func(ctx context.Context) (int64, error), log *logger.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, backlog: backlog, log: log}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	report := healthReport{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			h.log.Warn("health check %s failed: %v", check.Name, err)
			report.Checks[check.Name] = "unavailable"
			report.Status = "degraded"
			continue
		}
		report.Checks[check.Name] = "ok"
	}

	if h.backlog != nil {
		if n, err := h.backlog(ctx); err != nil {
			h.log.Warn("health: view backlog unavailable: %v", err)
		} else {
			report.ViewBacklog = &n
		}
	}

	if report.Status != "ok" {
		respondJSON(w, http.StatusServiceUnavailable, models.Envelope{
			Success: false,
			Data:    report,
			Error:   "service unavailable",
		})
		return
	}
	respondOK(w, http.StatusOK, report, "")
}
