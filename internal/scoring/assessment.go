package scoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assessment is the per-row scoring result for one machine. Field
// names and rounding are a stable contract consumed by the API and
// report layers as-is.
type Assessment struct {
	MachineID string    `json:"machine_id"`
	Timestamp time.Time `json:"timestamp"`

	// Failure model
	FailureProbability float64 `json:"failure_probability"` // rounded to 4 decimals
	RiskLevel          string  `json:"risk_level"`
	Recommendation     string  `json:"recommendation"`

	// Yield model. The raw prediction is kept unclamped for
	// statistical aggregation; the display value is bounded to
	// [0, 100].
	PredictedYieldRaw     float64 `json:"predicted_yield"`
	PredictedYieldDisplay float64 `json:"efficiency_percentage"`
	PerformanceLevel      string  `json:"performance_level"`

	// Anomaly model
	Cluster     int    `json:"cluster"`
	ClusterName string `json:"cluster_name"`
	IsAnomalous bool   `json:"is_anomalous"`

	// Fused health
	HealthScore  float64 `json:"health_score"`
	HealthStatus string  `json:"health_status"`

	// Raw channel echoes for display layers
	Temperature  float64 `json:"temperature"`
	Vibration    float64 `json:"vibration"`
	Pressure     float64 `json:"pressure"`
	Speed        float64 `json:"speed"`
	RuntimeHours float64 `json:"runtime_hours"`
}

// round keeps the output contract's decimal places stable regardless
// of float formatting quirks downstream
func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
