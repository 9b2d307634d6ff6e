package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scoring metrics
	ScoringRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_scoring_runs_total",
			Help: "Total number of scoring runs",
		},
		[]string{"mode", "status"}, // mode: latest_only|all_rows, status: success|error
	)

	ScoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_scoring_duration_seconds",
			Help:    "Scoring run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	MachinesScored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_machines_scored",
			Help: "Number of machines scored in the last run",
		},
	)

	// Model registry metrics
	ModelReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_model_reloads_total",
			Help: "Total number of model reload attempts",
		},
		[]string{"status"}, // status: success|error
	)

	ModelLoadedAt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_model_loaded_timestamp",
			Help: "Unix timestamp of the active model snapshot",
		},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factory_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Cache metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_cache_requests_total",
			Help: "Total response cache lookups",
		},
		[]string{"result"}, // result: hit|miss
	)

	// WebSocket metrics
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	// Fleet health metrics, refreshed after every scoring run
	FleetHealthScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "factory_machine_health_score",
			Help: "Latest health score per machine",
		},
		[]string{"machine_id"},
	)

	FleetAnomalous = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_anomalous_machines",
			Help: "Number of machines in an anomalous cluster",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Scoring metrics
	prometheus.MustRegister(ScoringRuns)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(MachinesScored)

	// Model registry metrics
	prometheus.MustRegister(ModelReloads)
	prometheus.MustRegister(ModelLoadedAt)

	// HTTP metrics
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)

	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Cache metrics
	prometheus.MustRegister(CacheRequests)

	// WebSocket metrics
	prometheus.MustRegister(WebSocketConnections)

	// Fleet health metrics
	prometheus.MustRegister(FleetHealthScore)
	prometheus.MustRegister(FleetAnomalous)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScoringRun records one scoring run
func RecordScoringRun(mode string, machines int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ScoringRuns.WithLabelValues(mode, status).Inc()
	ScoringDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		MachinesScored.Set(float64(machines))
	}
}

// RecordModelReload records a model reload attempt
func RecordModelReload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ModelReloads.WithLabelValues(status).Inc()
	if err == nil {
		ModelLoadedAt.SetToCurrentTime()
	}
}

// RecordHTTPRequest records one handled HTTP request
func RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	HTTPRequests.WithLabelValues(endpoint, httpStatusClass(statusCode)).Inc()
	HTTPDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordCacheLookup records a response cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequests.WithLabelValues(result).Inc()
}

func httpStatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
