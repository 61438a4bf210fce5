package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"notecal/internal/contextutil"
)

// Readiness reports the ingestion pipeline's liveness.
type Readiness interface {
	Indexed() bool
	Watching() bool
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	ingestor Readiness
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(ingestor Readiness) *HealthHandler {
	return &HealthHandler{ingestor: ingestor}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP reports whether the initial scan has completed and the file
// watcher is running. Returns 503 until both hold, so process managers
// can gate traffic on readiness.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	var issues []string

	if h.ingestor.Indexed() {
		checks["index"] = "ok"
	} else {
		checks["index"] = "pending"
		issues = append(issues, "initial_scan_incomplete")
	}

	if h.ingestor.Watching() {
		checks["watcher"] = "ok"
	} else {
		checks["watcher"] = "stopped"
		issues = append(issues, "watcher_not_running")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if len(issues) > 0 {
		response.Issues = issues
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
