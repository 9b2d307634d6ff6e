// Package health provides the liveness and readiness probe endpoints
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	registry    *ml.Registry
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(registry *ml.Registry, serviceName, version string) *Handler {
	return &Handler{
		log:         logger.Get().With("component", "health"),
		registry:    registry,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HandleHealth reports process liveness plus whether models are
// loaded. Always 200; a running process without models is alive but
// not ready.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "healthy",
		"service":       h.serviceName,
		"version":       h.version,
		"uptime":        time.Since(h.startTime).String(),
		"timestamp":     time.Now().Format(time.RFC3339),
		"models_loaded": h.registry.Loaded(),
	})
}

// HandleReadiness returns 200 only when a model snapshot is active.
// Used by orchestration readiness probes to gate traffic.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !h.registry.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "not_ready",
			"reason": "models not loaded",
		})
		return
	}

	snap, _ := h.registry.Snapshot()
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":           "ready",
		"models_loaded_at": snap.LoadedAt.Format(time.RFC3339),
	})
}
