package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		prob     float64
		yield    float64
		expected float64
	}{
		{"perfect machine", 0.0, 100, 100},
		{"dead machine", 1.0, 0, 0},
		{"even blend", 0.5, 50, 50},
		{"risk dominates half", 1.0, 100, 50},
		{"yield dominates half", 0.0, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.prob, tt.yield), 1e-9)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	for _, prob := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, yield := range []float64{0, 30, 70, 100} {
			score := Score(prob, yield)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

func TestStatus_Boundaries(t *testing.T) {
	assert.Equal(t, StatusGood, Status(75.0), "75.0 is the closed lower bound of Good")
	assert.Equal(t, StatusFair, Status(74.999))
	assert.Equal(t, StatusFair, Status(50.0))
	assert.Equal(t, StatusCritical, Status(49.999))
	assert.Equal(t, StatusGood, Status(100))
	assert.Equal(t, StatusCritical, Status(0))
}

func TestRiskLevel_Boundaries(t *testing.T) {
	level, rec := RiskLevel(0.7)
	assert.Equal(t, RiskMedium, level, "0.7 must not be High, the bound is exclusive")
	assert.Equal(t, RecommendationMedium, rec)

	level, rec = RiskLevel(0.70001)
	assert.Equal(t, RiskHigh, level)
	assert.Equal(t, RecommendationHigh, rec)

	level, _ = RiskLevel(0.4)
	assert.Equal(t, RiskLow, level)

	level, rec = RiskLevel(0.40001)
	assert.Equal(t, RiskMedium, level)
	assert.Equal(t, RecommendationMedium, rec)

	level, rec = RiskLevel(0.1)
	assert.Equal(t, RiskLow, level)
	assert.Equal(t, RecommendationLow, rec)
}

func TestPerformanceLevel(t *testing.T) {
	assert.Equal(t, PerformanceExcellent, PerformanceLevel(85))
	assert.Equal(t, PerformanceGood, PerformanceLevel(84.999))
	assert.Equal(t, PerformanceGood, PerformanceLevel(70))
	assert.Equal(t, PerformancePoor, PerformanceLevel(69.999))
}

func TestClusterConvention(t *testing.T) {
	assert.Equal(t, "Normal Operation", ClusterName(0))
	assert.Equal(t, "Elevated Vibration", ClusterName(1))
	assert.Equal(t, "High Temperature", ClusterName(2))
	assert.Equal(t, "Critical Conditions", ClusterName(3))
	assert.Equal(t, "Unknown", ClusterName(7))

	assert.False(t, IsAnomalous(0))
	assert.False(t, IsAnomalous(1))
	assert.True(t, IsAnomalous(2))
	assert.True(t, IsAnomalous(3))
}

func TestClampYield(t *testing.T) {
	assert.Equal(t, 0.0, ClampYield(-12.5))
	assert.Equal(t, 100.0, ClampYield(104.2))
	assert.Equal(t, 87.3, ClampYield(87.3))
}
