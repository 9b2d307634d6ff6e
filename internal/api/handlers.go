package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/cache"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/config"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/metrics"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/storage"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Response cache keys, one per cacheable endpoint
const (
	cacheKeyPredictFailure = "predict_failure"
	cacheKeyPredictYield   = "predict_yield"
	cacheKeyDetectAnomaly  = "detect_anomaly"
	cacheKeyMachineHealth  = "machine_health"
	cacheKeyStatistics     = "statistics"
)

var cacheKeys = []string{
	cacheKeyPredictFailure,
	cacheKeyPredictYield,
	cacheKeyDetectAnomaly,
	cacheKeyMachineHealth,
	cacheKeyStatistics,
}

// Broadcaster pushes updates to connected dashboard clients
type Broadcaster interface {
	BroadcastUpdate(kind string, payload interface{})
}

// Handlers implements the scoring endpoints
type Handlers struct {
	cfg      *config.Config
	pipeline *scoring.Pipeline
	registry *ml.Registry
	store    *storage.AssessmentStore
	cache    cache.ResponseCache
	hub      Broadcaster
	log      *logger.Logger
}

// NewHandlers creates the endpoint handlers. hub may be nil.
func NewHandlers(
	cfg *config.Config,
	pipeline *scoring.Pipeline,
	registry *ml.Registry,
	store *storage.AssessmentStore,
	responseCache cache.ResponseCache,
	hub Broadcaster,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		pipeline: pipeline,
		registry: registry,
		store:    store,
		cache:    responseCache,
		hub:      hub,
		log:      logger.Get().With("component", "api"),
	}
}

// statusRecorder captures the response code for request metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request duration and status metrics
func (h *Handlers) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.RecordHTTPRequest(endpoint, recorder.status, time.Since(start))
	}
}

// Root reports service identity and model state
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Smart Factory Analytics API",
		"version":       h.cfg.App.Version,
		"status":        "operational",
		"models_loaded": h.registry.Loaded(),
	})
}

// PredictFailure scores every machine's latest reading with the
// failure model
func (h *Handlers) PredictFailure(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyPredictFailure, func() (interface{}, error) {
		latest, err := h.scoreLatest()
		if err != nil {
			return nil, err
		}

		predictions := make([]map[string]interface{}, 0, len(latest))
		var high, medium, low int
		for _, a := range latest {
			switch a.RiskLevel {
			case health.RiskHigh:
				high++
			case health.RiskMedium:
				medium++
			default:
				low++
			}
			predictions = append(predictions, map[string]interface{}{
				"machine_id":          a.MachineID,
				"failure_probability": a.FailureProbability,
				"risk_level":          a.RiskLevel,
				"recommendation":      a.Recommendation,
				"temperature":         a.Temperature,
				"vibration":           a.Vibration,
				"pressure":            a.Pressure,
				"runtime_hours":       a.RuntimeHours,
			})
		}

		return map[string]interface{}{
			"timestamp":      time.Now().Format(time.RFC3339),
			"total_machines": len(predictions),
			"high_risk":      high,
			"medium_risk":    medium,
			"low_risk":       low,
			"predictions":    predictions,
		}, nil
	})
}

// PredictYield scores every machine's latest reading with the yield
// model
func (h *Handlers) PredictYield(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyPredictYield, func() (interface{}, error) {
		latest, err := h.scoreLatest()
		if err != nil {
			return nil, err
		}

		predictions := make([]map[string]interface{}, 0, len(latest))
		var efficiencySum float64
		for _, a := range latest {
			efficiencySum += a.PredictedYieldDisplay
			predictions = append(predictions, map[string]interface{}{
				"machine_id":            a.MachineID,
				"predicted_yield":       a.PredictedYieldRaw,
				"efficiency_percentage": a.PredictedYieldDisplay,
				"performance_level":     a.PerformanceLevel,
				"temperature":           a.Temperature,
				"pressure":              a.Pressure,
				"speed":                 a.Speed,
			})
		}

		var averageEfficiency float64
		if len(predictions) > 0 {
			averageEfficiency = roundTo(efficiencySum/float64(len(predictions)), 2)
		}

		return map[string]interface{}{
			"timestamp":          time.Now().Format(time.RFC3339),
			"total_machines":     len(predictions),
			"average_efficiency": averageEfficiency,
			"predictions":        predictions,
		}, nil
	})
}

// DetectAnomaly assigns every machine's latest reading to an
// operating-mode cluster
func (h *Handlers) DetectAnomaly(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyDetectAnomaly, func() (interface{}, error) {
		latest, err := h.scoreLatest()
		if err != nil {
			return nil, err
		}

		results := make([]map[string]interface{}, 0, len(latest))
		distribution := make(map[string]int)
		for c := 0; c < ml.NumClusters; c++ {
			distribution[health.ClusterName(c)] = 0
		}

		var anomalous int
		for _, a := range latest {
			if a.IsAnomalous {
				anomalous++
			}
			distribution[a.ClusterName]++
			results = append(results, map[string]interface{}{
				"machine_id":   a.MachineID,
				"cluster":      a.Cluster,
				"cluster_name": a.ClusterName,
				"is_anomalous": a.IsAnomalous,
				"temperature":  a.Temperature,
				"vibration":    a.Vibration,
				"pressure":     a.Pressure,
				"speed":        a.Speed,
			})
		}

		return map[string]interface{}{
			"timestamp":            time.Now().Format(time.RFC3339),
			"total_machines":       len(results),
			"anomalous_machines":   anomalous,
			"cluster_distribution": distribution,
			"results":              results,
		}, nil
	})
}

// MachineHealth fuses all three models into a per-machine health view
func (h *Handlers) MachineHealth(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyMachineHealth, func() (interface{}, error) {
		latest, err := h.scoreLatest()
		if err != nil {
			return nil, err
		}

		machines := make([]map[string]interface{}, 0, len(latest))
		var scoreSum float64
		var good, fair, critical int
		for _, a := range latest {
			scoreSum += a.HealthScore
			switch a.HealthStatus {
			case health.StatusGood:
				good++
			case health.StatusFair:
				fair++
			default:
				critical++
			}
			machines = append(machines, map[string]interface{}{
				"machine_id":          a.MachineID,
				"health_score":        a.HealthScore,
				"health_status":       a.HealthStatus,
				"failure_probability": a.FailureProbability,
				"yield_efficiency":    a.PredictedYieldDisplay,
				"cluster":             a.Cluster,
				"is_anomalous":        a.IsAnomalous,
				"temperature":         a.Temperature,
				"vibration":           a.Vibration,
				"pressure":            a.Pressure,
				"speed":               a.Speed,
				"runtime_hours":       a.RuntimeHours,
				"last_update":         a.Timestamp.Format(time.RFC3339),
			})
		}

		var averageScore float64
		if len(machines) > 0 {
			averageScore = roundTo(scoreSum/float64(len(machines)), 2)
		}

		return map[string]interface{}{
			"timestamp":            time.Now().Format(time.RFC3339),
			"total_machines":       len(machines),
			"average_health_score": averageScore,
			"good_health":          good,
			"fair_health":          fair,
			"critical_health":      critical,
			"machines":             machines,
		}, nil
	})
}

// FleetSnapshot serves the background scorer's latest stored
// assessments without rescoring. Cheap enough to poll; the websocket
// stream pushes the same state.
func (h *Handlers) FleetSnapshot(w http.ResponseWriter, r *http.Request) {
	latest := h.store.All()

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	machines := make([]scoring.Assessment, 0, len(ids))
	for _, id := range ids {
		machines = append(machines, latest[id])
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated_at":     h.store.UpdatedAt().Format(time.RFC3339),
		"total_machines": len(machines),
		"machines":       machines,
	})
}

// Statistics summarizes the raw sensor table without touching the
// models
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cacheKeyStatistics, func() (interface{}, error) {
		histories, err := telemetry.LoadCSV(h.cfg.Data.SensorCSV)
		if err != nil {
			return nil, err
		}
		stats := histories.Summarize()

		return map[string]interface{}{
			"total_samples":           stats.TotalSamples,
			"total_machines":          stats.TotalMachines,
			"total_failures":          stats.TotalFailures,
			"failure_rate_percentage": roundTo(stats.FailureRate, 2),
			"date_range": map[string]string{
				"start": stats.Start.Format(time.RFC3339),
				"end":   stats.End.Format(time.RFC3339),
			},
			"average_metrics": map[string]float64{
				"temperature":   roundTo(stats.AvgTemperature, 2),
				"vibration":     roundTo(stats.AvgVibration, 3),
				"pressure":      roundTo(stats.AvgPressure, 2),
				"speed":         roundTo(stats.AvgSpeed, 2),
				"runtime_hours": roundTo(stats.AvgRuntimeHours, 2),
			},
		}, nil
	})
}

// ReloadModels swaps in a fresh artifact snapshot. POST only; a
// failed reload keeps the previous snapshot serving.
func (h *Handlers) ReloadModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "method not allowed, use POST",
		})
		return
	}

	err := h.registry.Load(h.cfg.Models.Dir)
	metrics.RecordModelReload(err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cache.Invalidate(r.Context(), cacheKeys...)
	if h.hub != nil {
		h.hub.BroadcastUpdate("models_reloaded", map[string]string{
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"message":   "Model snapshot reloaded",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// scoreLatest loads the sensor table, scores every machine's newest
// reading and returns the assessments in machine id order
func (h *Handlers) scoreLatest() ([]scoring.Assessment, error) {
	histories, err := telemetry.LoadCSV(h.cfg.Data.SensorCSV)
	if err != nil {
		return nil, err
	}

	results, err := h.pipeline.Score(histories, scoring.ModeLatestOnly)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	latest := make([]scoring.Assessment, 0, len(ids))
	for _, id := range ids {
		assessments := results[id]
		latest = append(latest, assessments[len(assessments)-1])
	}
	return latest, nil
}

// serveCached returns the cached response for key if present,
// otherwise builds, caches and serves it
func (h *Handlers) serveCached(w http.ResponseWriter, r *http.Request, key string, build func() (interface{}, error)) {
	if payload, ok := h.cache.Get(r.Context(), key); ok {
		metrics.RecordCacheLookup(true)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}
	metrics.RecordCacheLookup(false)

	response, err := build()
	if err != nil {
		h.writeError(w, err)
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		h.writeError(w, errors.Wrap(err, "response marshal failed"))
		return
	}

	h.cache.Set(r.Context(), key, payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorw("Response encode failed", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var missingChannel *errors.MissingChannelError
	var validation *errors.ValidationError
	switch {
	case errors.Is(err, errors.ErrModelsNotLoaded), errors.Is(err, errors.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput),
		errors.As(err, &missingChannel),
		errors.As(err, &validation):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "error", err)
	} else {
		h.log.Warnw("Request rejected", "status", status, "error", err)
	}

	h.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
