package reports

import (
	"bytes"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

type machineSpec struct {
	id       string
	readings int
	prob     float64
	yield    float64
	cluster  int
	failures int
	tempRamp float64
}

func buildFleetInput(specs ...machineSpec) (telemetry.Histories, map[string][]scoring.Assessment) {
	start := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	histories := make(telemetry.Histories)
	assessments := make(map[string][]scoring.Assessment)

	for _, spec := range specs {
		for i := 0; i < spec.readings; i++ {
			reading := telemetry.Reading{
				MachineID:    spec.id,
				Timestamp:    start.Add(time.Duration(i) * 5 * time.Minute),
				Temperature:  70 + spec.tempRamp*float64(i),
				Vibration:    1.0,
				Pressure:     100,
				Speed:        1500,
				RuntimeHours: 5000 + float64(i),
				Failed:       i < spec.failures,
				Labeled:      true,
			}
			histories[spec.id] = append(histories[spec.id], reading)

			yieldDisplay := health.ClampYield(spec.yield)
			score := health.Score(spec.prob, yieldDisplay)
			assessments[spec.id] = append(assessments[spec.id], scoring.Assessment{
				MachineID:             spec.id,
				Timestamp:             reading.Timestamp,
				FailureProbability:    spec.prob,
				PredictedYieldRaw:     spec.yield,
				PredictedYieldDisplay: yieldDisplay,
				Cluster:               spec.cluster,
				HealthScore:           score,
				HealthStatus:          health.Status(score),
				Temperature:           reading.Temperature,
				Vibration:             reading.Vibration,
				Pressure:              reading.Pressure,
				Speed:                 reading.Speed,
				RuntimeHours:          reading.RuntimeHours,
			})
		}
	}
	return histories, assessments
}

func TestAggregator_EmptyInput(t *testing.T) {
	_, err := NewAggregator().Build(telemetry.Histories{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestAggregator_MismatchedRowCounts(t *testing.T) {
	histories, assessments := buildFleetInput(machineSpec{id: "M001", readings: 5, yield: 80})
	assessments["M001"] = assessments["M001"][:3]

	_, err := NewAggregator().Build(histories, assessments)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestAggregator_FailureReport(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "M001", readings: 10, prob: 0.82, yield: 60, cluster: 3, failures: 2},
		machineSpec{id: "M002", readings: 10, prob: 0.35, yield: 90, cluster: 0},
		machineSpec{id: "M003", readings: 10, prob: 0.05, yield: 95, cluster: 0},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)
	require.Len(t, fleet.Failure, 3)

	// Sorted by probability, most at-risk machine first
	assert.Equal(t, "M001", fleet.Failure[0].MachineID)
	assert.Equal(t, "M003", fleet.Failure[2].MachineID)

	top := fleet.Failure[0]
	assert.Equal(t, 0.82, top.FailureProbability)
	assert.Equal(t, health.RiskHigh, top.RiskLevel)
	assert.Equal(t, health.RecommendationHigh, top.Recommendation)
	assert.Equal(t, 82, top.MaintenancePriority)
	assert.Equal(t, 2, top.TotalFailures)
	assert.Equal(t, 5009.0, top.RuntimeHours)

	// Report bands flag borderline machines earlier than live scoring
	assert.Equal(t, health.RiskMedium, fleet.Failure[1].RiskLevel)
	assert.Equal(t, health.RecommendationLow, fleet.Failure[1].Recommendation)
}

func TestAggregator_YieldReport(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "M001", readings: 5, prob: 0.1, yield: 104.5, cluster: 0},
		machineSpec{id: "M002", readings: 5, prob: 0.1, yield: 62, cluster: 1},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)
	require.Len(t, fleet.Yield, 2)

	best := fleet.Yield[0]
	assert.Equal(t, "M001", best.MachineID)
	assert.Equal(t, 104.5, best.PredictedYield, "raw mean stays unclamped")
	assert.Equal(t, 100.0, best.YieldEfficiency)
	assert.Equal(t, health.PerformanceExcellent, best.PerformanceLevel)
	assert.Equal(t, 0.0, best.OptimizationPotential)
	assert.Equal(t, YieldRecommendationExcellent, best.Recommendation)

	worst := fleet.Yield[1]
	assert.Equal(t, health.PerformancePoor, worst.PerformanceLevel)
	assert.Equal(t, 38.0, worst.OptimizationPotential)
	assert.Equal(t, YieldRecommendationPoor, worst.Recommendation)
}

func TestAggregator_ClusterReport(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "M001", readings: 10, cluster: 0, yield: 90},
		machineSpec{id: "M002", readings: 10, cluster: 3, yield: 50, failures: 1},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)
	require.Len(t, fleet.Clusters, 2)

	// Highest anomaly score first
	critical := fleet.Clusters[0]
	assert.Equal(t, 3, critical.Cluster)
	assert.Equal(t, "Cluster D - Critical Conditions", critical.ClusterName)
	assert.Equal(t, 10, critical.Samples)
	assert.Equal(t, 0.1, critical.FailureRate)
	assert.Equal(t, 10.0, critical.AnomalyScore)
	assert.Equal(t, ClusterTypeCritical, critical.ClusterType)
	assert.Equal(t, 70.0, critical.AvgTemperature)
	assert.Equal(t, 0.0, critical.StdTemperature)

	normal := fleet.Clusters[1]
	assert.Equal(t, 0, normal.Cluster)
	assert.Equal(t, "Cluster A - Normal Operation", normal.ClusterName)
	assert.Equal(t, ClusterTypeNormal, normal.ClusterType)
	assert.Equal(t, 0.0, normal.AnomalyScore)
}

func TestAggregator_HealthReportSortedWorstFirst(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "M001", readings: 5, prob: 0.05, yield: 95, cluster: 0},
		machineSpec{id: "M002", readings: 5, prob: 0.9, yield: 30, cluster: 3},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)
	require.Len(t, fleet.Health, 2)

	assert.Equal(t, "M002", fleet.Health[0].MachineID)
	assert.Equal(t, health.StatusCritical, fleet.Health[0].HealthStatus)
	assert.Equal(t, "M001", fleet.Health[1].MachineID)
	assert.Equal(t, health.StatusGood, fleet.Health[1].HealthStatus)
}

func TestAggregator_TemperatureTrend(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "RISING", readings: 30, yield: 80, tempRamp: 0.5},
		machineSpec{id: "STEADY", readings: 30, yield: 80},
		machineSpec{id: "SHORT", readings: 5, yield: 80, tempRamp: 5},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)

	byMachine := make(map[string]HealthRow)
	for _, row := range fleet.Health {
		byMachine[row.MachineID] = row
	}

	assert.Equal(t, TrendRising, byMachine["RISING"].TemperatureTrend)
	assert.Equal(t, TrendStable, byMachine["STEADY"].TemperatureTrend)
	assert.Equal(t, TrendStable, byMachine["SHORT"].TemperatureTrend, "short history reads as stable")
}

func TestFleet_CSVRoundtrip(t *testing.T) {
	histories, assessments := buildFleetInput(
		machineSpec{id: "M001", readings: 5, prob: 0.4, yield: 75, cluster: 1},
		machineSpec{id: "M002", readings: 5, prob: 0.1, yield: 92, cluster: 0},
	)

	fleet, err := NewAggregator().Build(histories, assessments)
	require.NoError(t, err)

	for name, write := range map[string]func(*Fleet) (int, [][]string){
		"failure": func(f *Fleet) (int, [][]string) { return len(f.Failure), writeAndParse(t, f.WriteFailureCSV) },
		"yield":   func(f *Fleet) (int, [][]string) { return len(f.Yield), writeAndParse(t, f.WriteYieldCSV) },
		"anomaly": func(f *Fleet) (int, [][]string) { return len(f.Clusters), writeAndParse(t, f.WriteAnomalyCSV) },
		"health":  func(f *Fleet) (int, [][]string) { return len(f.Health), writeAndParse(t, f.WriteHealthCSV) },
	} {
		rows, records := write(fleet)
		require.Greater(t, len(records), 1, name)
		assert.Len(t, records, rows+1, "%s: one record per row plus header", name)
		for _, record := range records[1:] {
			assert.Len(t, record, len(records[0]), "%s: ragged record", name)
		}
	}
}

func writeAndParse(t *testing.T, write func(w io.Writer) error) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, write(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}
