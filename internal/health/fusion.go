// Package health fuses the three model outputs into one bounded
// health assessment. Every threshold here is a fixed design constant
// shared with historical reports; none of them is derived from data.
package health

// Fusion weights for the health score blend
const (
	failureWeight = 0.5
	yieldWeight   = 0.5
)

// Health status bands, evaluated top-down with closed lower bounds
const (
	StatusGood     = "Good"
	StatusFair     = "Fair"
	StatusCritical = "Critical"

	goodThreshold = 75
	fairThreshold = 50
)

// Failure risk levels with their maintenance recommendations. The
// bounds are exclusive: a probability of exactly 0.7 is Medium.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"

	highRiskThreshold   = 0.7
	mediumRiskThreshold = 0.4

	RecommendationHigh   = "URGENT: Schedule immediate maintenance"
	RecommendationMedium = "WARNING: Plan maintenance within 48 hours"
	RecommendationLow    = "NORMAL: Continue regular monitoring"
)

// Yield performance levels
const (
	PerformanceExcellent = "Excellent"
	PerformanceGood      = "Good"
	PerformancePoor      = "Poor"

	excellentYieldThreshold = 85
	goodYieldThreshold      = 70
)

// Operating-mode cluster names. Cluster ids are unordered by nature;
// this table and the anomaly cutoff below are a fixed labeling
// convention tied to the trained model, not a property of the
// clustering itself.
var clusterNames = [...]string{
	"Normal Operation",
	"Elevated Vibration",
	"High Temperature",
	"Critical Conditions",
}

// anomalousClusterMin is the first cluster id treated as anomalous
const anomalousClusterMin = 2

// Score blends non-failure confidence and yield efficiency into a
// 0-100 health score. Both inputs are already bounded, so the result
// is too.
func Score(failureProbability, yieldEfficiency float64) float64 {
	return ((1-failureProbability)*failureWeight + yieldEfficiency/100*yieldWeight) * 100
}

// Status maps a health score to its band
func Status(score float64) string {
	switch {
	case score >= goodThreshold:
		return StatusGood
	case score >= fairThreshold:
		return StatusFair
	default:
		return StatusCritical
	}
}

// RiskLevel maps a failure probability to a risk level and
// maintenance recommendation
func RiskLevel(failureProbability float64) (string, string) {
	switch {
	case failureProbability > highRiskThreshold:
		return RiskHigh, RecommendationHigh
	case failureProbability > mediumRiskThreshold:
		return RiskMedium, RecommendationMedium
	default:
		return RiskLow, RecommendationLow
	}
}

// PerformanceLevel maps a yield efficiency to its band
func PerformanceLevel(yieldEfficiency float64) string {
	switch {
	case yieldEfficiency >= excellentYieldThreshold:
		return PerformanceExcellent
	case yieldEfficiency >= goodYieldThreshold:
		return PerformanceGood
	default:
		return PerformancePoor
	}
}

// ClusterName returns the display name for an operating-mode cluster
func ClusterName(cluster int) string {
	if cluster >= 0 && cluster < len(clusterNames) {
		return clusterNames[cluster]
	}
	return "Unknown"
}

// IsAnomalous reports whether a cluster id is anomalous by convention
func IsAnomalous(cluster int) bool {
	return cluster >= anomalousClusterMin
}

// ClampYield bounds a raw yield prediction to the display range
func ClampYield(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}
