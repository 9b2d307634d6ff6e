// Package api exposes the scoring pipeline over HTTP
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/api/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/api/ws"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/metrics"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer wires all routes and returns a server ready to start
func NewServer(port int, handlers *Handlers, healthHandler *health.Handler, hub *ws.Hub) *Server {
	mux := http.NewServeMux()

	// Probe endpoints
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Scoring endpoints
	mux.HandleFunc("/predict_failure", handlers.instrument("predict_failure", handlers.PredictFailure))
	mux.HandleFunc("/predict_yield", handlers.instrument("predict_yield", handlers.PredictYield))
	mux.HandleFunc("/detect_anomaly", handlers.instrument("detect_anomaly", handlers.DetectAnomaly))
	mux.HandleFunc("/machine_health", handlers.instrument("machine_health", handlers.MachineHealth))
	mux.HandleFunc("/statistics", handlers.instrument("statistics", handlers.Statistics))
	mux.HandleFunc("/fleet_snapshot", handlers.instrument("fleet_snapshot", handlers.FleetSnapshot))
	mux.HandleFunc("/reload_models", handlers.instrument("reload_models", handlers.ReloadModels))

	// Dashboard push channel
	if hub != nil {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWS(hub, w, r)
		})
	}

	// Service info
	mux.HandleFunc("/", handlers.instrument("root", handlers.Root))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        logger.Get().With("component", "http_server"),
	}
}

// Start begins listening for HTTP requests. Blocks until the server
// is stopped or fails.
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting for active
// connections to complete within ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}
	return nil
}
