package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// Feature schemas matching the trained model families
var (
	failureSchema = []string{
		"temperature", "vibration", "pressure", "speed", "runtime_hours",
		"temperature_change", "vibration_change", "pressure_change",
		"temperature_rolling_mean", "vibration_rolling_mean", "pressure_rolling_mean",
		"temperature_rolling_std", "vibration_rolling_std", "pressure_rolling_std",
		"temp_vibration_interaction", "pressure_speed_ratio", "hour",
	}
	yieldSchema = []string{
		"temperature", "vibration", "pressure", "speed", "runtime_hours",
		"temperature_change", "vibration_change", "pressure_change",
		"temperature_rolling_mean", "vibration_rolling_mean", "pressure_rolling_mean",
		"temp_vibration_interaction", "pressure_speed_ratio",
	}
	anomalySchema = []string{
		"temperature", "vibration", "pressure", "speed",
		"temperature_change", "vibration_change", "pressure_change",
		"temperature_rolling_std", "vibration_rolling_std", "pressure_rolling_std",
	}
)

// Stub models with fixed outputs

type constClassifier struct{ prob float64 }

func (c constClassifier) PredictProba(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = c.prob
	}
	return out, nil
}

type constRegressor struct{ value float64 }

func (r constRegressor) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = r.value
	}
	return out, nil
}

type constClusterer struct{ cluster int }

func (c constClusterer) PredictCluster(x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i := range out {
		out[i] = c.cluster
	}
	return out, nil
}

type snapshotLoader struct{ snap *ml.Snapshot }

func (l snapshotLoader) Load(dir string) (*ml.Snapshot, error) { return l.snap, nil }

func identityScaler(dim int) *ml.Scaler {
	mean := make([]float64, dim)
	scale := make([]float64, dim)
	for i := range scale {
		scale[i] = 1
	}
	return &ml.Scaler{Mean: mean, Scale: scale}
}

func stubRegistry(t *testing.T, prob, yield float64, cluster int) *ml.Registry {
	t.Helper()

	snap := &ml.Snapshot{
		Failure: &ml.ClassifierArtifact{
			Artifact: ml.Artifact{Name: ml.FamilyFailure, Schema: failureSchema, Scaler: identityScaler(len(failureSchema))},
			Model:    constClassifier{prob: prob},
		},
		Yield: &ml.RegressorArtifact{
			Artifact: ml.Artifact{Name: ml.FamilyYield, Schema: yieldSchema, Scaler: identityScaler(len(yieldSchema))},
			Model:    constRegressor{value: yield},
		},
		Anomaly: &ml.ClustererArtifact{
			Artifact: ml.Artifact{Name: ml.FamilyAnomaly, Schema: anomalySchema, Scaler: identityScaler(len(anomalySchema))},
			Model:    constClusterer{cluster: cluster},
		},
	}

	registry := ml.NewRegistry(snapshotLoader{snap: snap})
	require.NoError(t, registry.Load("ml"))
	return registry
}

func fleetHistories(machines map[string]int) telemetry.Histories {
	start := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	h := make(telemetry.Histories)
	for id, n := range machines {
		for i := 0; i < n; i++ {
			h[id] = append(h[id], telemetry.Reading{
				MachineID:    id,
				Timestamp:    start.Add(time.Duration(i) * 5 * time.Minute),
				Temperature:  70,
				Vibration:    1.0,
				Pressure:     100,
				Speed:        1500,
				RuntimeHours: 5000,
			})
		}
	}
	return h
}

func TestPipeline_ModelsNotLoaded(t *testing.T) {
	pipeline := NewPipeline(ml.NewRegistry(snapshotLoader{}))

	_, err := pipeline.Score(fleetHistories(map[string]int{"M001": 5}), ModeLatestOnly)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelsNotLoaded))
}

func TestPipeline_LatestOnlyScoresOneRowPerMachine(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.2, 88, 0))
	histories := fleetHistories(map[string]int{"M001": 15, "M002": 3})

	results, err := pipeline.Score(histories, ModeLatestOnly)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Len(t, results["M001"], 1)
	assert.Len(t, results["M002"], 1)

	// The latest timestamp survives row selection
	last := histories["M001"][14].Timestamp
	assert.Equal(t, last, results["M001"][0].Timestamp)
}

func TestPipeline_AllRowsScoresEveryReading(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.2, 88, 0))

	results, err := pipeline.Score(fleetHistories(map[string]int{"M001": 15, "M002": 3}), ModeAllRows)
	require.NoError(t, err)

	assert.Len(t, results["M001"], 15)
	assert.Len(t, results["M002"], 3)
}

func TestPipeline_EmptyHistoryOmitted(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.2, 88, 0))
	histories := fleetHistories(map[string]int{"M001": 5})
	histories["M999"] = nil

	results, err := pipeline.Score(histories, ModeLatestOnly)
	require.NoError(t, err)

	_, present := results["M999"]
	assert.False(t, present, "machine with no readings must be absent, not emitted with nulls")
	assert.Len(t, results, 1)
}

func TestPipeline_AssessmentContract(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.123456, 88.4567, 1))

	results, err := pipeline.Score(fleetHistories(map[string]int{"M001": 13}), ModeLatestOnly)
	require.NoError(t, err)

	a := results["M001"][0]
	assert.Equal(t, 0.1235, a.FailureProbability, "probability rounds to 4 decimals")
	assert.Equal(t, 88.46, a.PredictedYieldRaw)
	assert.Equal(t, 88.46, a.PredictedYieldDisplay)
	assert.Equal(t, health.RiskLow, a.RiskLevel)
	assert.Equal(t, health.RecommendationLow, a.Recommendation)
	assert.Equal(t, health.PerformanceExcellent, a.PerformanceLevel)
	assert.Equal(t, 1, a.Cluster)
	assert.Equal(t, "Elevated Vibration", a.ClusterName)
	assert.False(t, a.IsAnomalous)

	// ((1-0.123456)*0.5 + 0.884567*0.5) * 100, rounded to 2 decimals
	assert.InDelta(t, 88.06, a.HealthScore, 0.005)
	assert.Equal(t, health.StatusGood, a.HealthStatus)

	assert.Equal(t, 70.0, a.Temperature)
	assert.Equal(t, 1.0, a.Vibration)
}

func TestPipeline_YieldClampKeepsRaw(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.1, 104.2, 0))

	results, err := pipeline.Score(fleetHistories(map[string]int{"M001": 13}), ModeLatestOnly)
	require.NoError(t, err)

	a := results["M001"][0]
	assert.Equal(t, 104.2, a.PredictedYieldRaw, "raw prediction stays unclamped for aggregation")
	assert.Equal(t, 100.0, a.PredictedYieldDisplay)
}

func TestPipeline_Bounds(t *testing.T) {
	for _, tc := range []struct {
		prob    float64
		yield   float64
		cluster int
	}{
		{0, -50, 0},
		{1, 250, 3},
		{0.5, 50, 2},
	} {
		pipeline := NewPipeline(stubRegistry(t, tc.prob, tc.yield, tc.cluster))

		results, err := pipeline.Score(fleetHistories(map[string]int{"M001": 13}), ModeLatestOnly)
		require.NoError(t, err)

		a := results["M001"][0]
		assert.GreaterOrEqual(t, a.FailureProbability, 0.0)
		assert.LessOrEqual(t, a.FailureProbability, 1.0)
		assert.GreaterOrEqual(t, a.HealthScore, 0.0)
		assert.LessOrEqual(t, a.HealthScore, 100.0)
		assert.Contains(t, []int{0, 1, 2, 3}, a.Cluster)
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.35, 72.5, 2))
	histories := fleetHistories(map[string]int{"M001": 20, "M002": 14})

	first, err := pipeline.Score(histories, ModeAllRows)
	require.NoError(t, err)
	second, err := pipeline.Score(histories, ModeAllRows)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipeline_AnomalousCluster(t *testing.T) {
	pipeline := NewPipeline(stubRegistry(t, 0.8, 40, 3))

	results, err := pipeline.Score(fleetHistories(map[string]int{"M001": 13}), ModeLatestOnly)
	require.NoError(t, err)

	a := results["M001"][0]
	assert.True(t, a.IsAnomalous)
	assert.Equal(t, "Critical Conditions", a.ClusterName)
	assert.Equal(t, health.RiskHigh, a.RiskLevel)
	assert.Equal(t, health.StatusCritical, a.HealthStatus)
}
