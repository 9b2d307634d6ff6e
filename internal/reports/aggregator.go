// Package reports builds fleet-wide CSV exports from batch scoring
// results. The four reports mirror the dashboards the plant teams
// already use, so column names and sort orders are part of the
// contract.
package reports

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Report risk bands. These differ from the live-scoring thresholds:
// the report flags machines earlier (0.3 instead of 0.4) so the
// weekly planning view surfaces borderline machines.
const (
	reportMediumRiskThreshold = 0.3
	reportHighRiskThreshold   = 0.7
)

// Cluster criticality bands, in failure-rate percent
const (
	ClusterTypeNormal   = "Normal"
	ClusterTypeWarning  = "Warning"
	ClusterTypeCritical = "Critical"

	warningFailureRate  = 2
	criticalFailureRate = 5
)

// Yield report recommendations
const (
	YieldRecommendationPoor      = "CRITICAL: Investigate process inefficiencies"
	YieldRecommendationGood      = "OPTIMIZE: Fine-tune operational parameters"
	YieldRecommendationExcellent = "EXCELLENT: Maintain current performance"
)

// Temperature trend labels and EMA settings
const (
	TrendRising  = "Rising"
	TrendFalling = "Falling"
	TrendStable  = "Stable"

	trendPeriod = 12
	trendDelta  = 0.5
)

// FailureRow is one machine in the failure predictions report
type FailureRow struct {
	MachineID           string
	FailureProbability  float64
	RuntimeHours        float64
	AvgTemperature      float64
	AvgVibration        float64
	AvgPressure         float64
	AvgSpeed            float64
	TotalFailures       int
	RiskLevel           string
	MaintenancePriority int
	Recommendation      string
}

// YieldRow is one machine in the yield performance report
type YieldRow struct {
	MachineID             string
	PredictedYield        float64
	AvgTemperature        float64
	AvgVibration          float64
	AvgPressure           float64
	AvgSpeed              float64
	RuntimeHours          float64
	YieldEfficiency       float64
	PerformanceLevel      string
	OptimizationPotential float64
	Recommendation        string
}

// ClusterRow is one operating-mode cluster in the anomaly report
type ClusterRow struct {
	Cluster        int
	ClusterName    string
	AvgTemperature float64
	StdTemperature float64
	AvgVibration   float64
	StdVibration   float64
	AvgPressure    float64
	StdPressure    float64
	AvgSpeed       float64
	StdSpeed       float64
	FailureRate    float64
	Samples        int
	AnomalyScore   float64
	ClusterType    string
}

// HealthRow is one machine in the health overview report, scored from
// its latest reading
type HealthRow struct {
	MachineID          string
	Timestamp          time.Time
	HealthScore        float64
	HealthStatus       string
	FailureProbability float64
	PredictedYield     float64
	Cluster            int
	TemperatureTrend   string
	Temperature        float64
	Vibration          float64
	Pressure           float64
	Speed              float64
	RuntimeHours       float64
}

// Fleet bundles the four reports built from one batch scoring run
type Fleet struct {
	GeneratedAt time.Time
	Failure     []FailureRow
	Yield       []YieldRow
	Clusters    []ClusterRow
	Health      []HealthRow
}

// Aggregator folds per-row assessments into fleet reports
type Aggregator struct {
	log *logger.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{log: logger.Get().With("component", "report_aggregator")}
}

// Build aggregates a full-history scoring run into the four fleet
// reports. Assessments must carry one entry per reading, in timestamp
// order, which is what scoring in all-rows mode produces.
func (a *Aggregator) Build(histories telemetry.Histories, assessments map[string][]scoring.Assessment) (*Fleet, error) {
	if len(assessments) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no assessments to aggregate")
	}

	fleet := &Fleet{GeneratedAt: time.Now().UTC()}
	clusterAcc := make(map[int]*clusterAccumulator)

	for _, machineID := range sortedMachines(assessments) {
		rows := assessments[machineID]
		history := append([]telemetry.Reading(nil), histories[machineID]...)
		telemetry.SortHistory(history)
		if len(rows) != len(history) {
			return nil, errors.Wrapf(errors.ErrInternal,
				"machine %s: %d assessments for %d readings", machineID, len(rows), len(history))
		}

		fleet.Failure = append(fleet.Failure, buildFailureRow(machineID, rows, history))
		fleet.Yield = append(fleet.Yield, buildYieldRow(machineID, rows, history))
		fleet.Health = append(fleet.Health, buildHealthRow(rows[len(rows)-1], history))

		for i, assessment := range rows {
			acc, ok := clusterAcc[assessment.Cluster]
			if !ok {
				acc = &clusterAccumulator{}
				clusterAcc[assessment.Cluster] = acc
			}
			acc.add(history[i])
		}
	}

	fleet.Clusters = buildClusterRows(clusterAcc)
	sortFleet(fleet)

	a.log.Infow("Fleet reports built",
		"machines", len(fleet.Failure),
		"clusters", len(fleet.Clusters),
	)
	return fleet, nil
}

func buildFailureRow(machineID string, rows []scoring.Assessment, history []telemetry.Reading) FailureRow {
	var probSum float64
	for _, r := range rows {
		probSum += r.FailureProbability
	}
	meanProb := probSum / float64(len(rows))

	var failures int
	var maxRuntime float64
	var temp, vib, press, speed float64
	for _, r := range history {
		if r.Failed {
			failures++
		}
		if r.RuntimeHours > maxRuntime {
			maxRuntime = r.RuntimeHours
		}
		temp += r.Temperature
		vib += r.Vibration
		press += r.Pressure
		speed += r.Speed
	}
	n := float64(len(history))

	_, recommendation := health.RiskLevel(meanProb)
	return FailureRow{
		MachineID:           machineID,
		FailureProbability:  round(meanProb, 4),
		RuntimeHours:        round(maxRuntime, 2),
		AvgTemperature:      round(temp/n, 2),
		AvgVibration:        round(vib/n, 3),
		AvgPressure:         round(press/n, 2),
		AvgSpeed:            round(speed/n, 2),
		TotalFailures:       failures,
		RiskLevel:           reportRiskLevel(meanProb),
		MaintenancePriority: int(round(meanProb*100, 0)),
		Recommendation:      recommendation,
	}
}

func buildYieldRow(machineID string, rows []scoring.Assessment, history []telemetry.Reading) YieldRow {
	var yieldSum float64
	for _, r := range rows {
		yieldSum += r.PredictedYieldRaw
	}
	meanYield := yieldSum / float64(len(rows))
	efficiency := round(health.ClampYield(meanYield), 2)

	var maxRuntime float64
	var temp, vib, press, speed float64
	for _, r := range history {
		if r.RuntimeHours > maxRuntime {
			maxRuntime = r.RuntimeHours
		}
		temp += r.Temperature
		vib += r.Vibration
		press += r.Pressure
		speed += r.Speed
	}
	n := float64(len(history))

	return YieldRow{
		MachineID:             machineID,
		PredictedYield:        round(meanYield, 2),
		AvgTemperature:        round(temp/n, 2),
		AvgVibration:          round(vib/n, 3),
		AvgPressure:           round(press/n, 2),
		AvgSpeed:              round(speed/n, 2),
		RuntimeHours:          round(maxRuntime, 2),
		YieldEfficiency:       efficiency,
		PerformanceLevel:      health.PerformanceLevel(efficiency),
		OptimizationPotential: round(100-efficiency, 2),
		Recommendation:        yieldRecommendation(efficiency),
	}
}

func buildHealthRow(latest scoring.Assessment, history []telemetry.Reading) HealthRow {
	return HealthRow{
		MachineID:          latest.MachineID,
		Timestamp:          latest.Timestamp,
		HealthScore:        latest.HealthScore,
		HealthStatus:       latest.HealthStatus,
		FailureProbability: latest.FailureProbability,
		PredictedYield:     latest.PredictedYieldDisplay,
		Cluster:            latest.Cluster,
		TemperatureTrend:   temperatureTrend(history),
		Temperature:        latest.Temperature,
		Vibration:          latest.Vibration,
		Pressure:           latest.Pressure,
		Speed:              latest.Speed,
		RuntimeHours:       latest.RuntimeHours,
	}
}

type clusterAccumulator struct {
	n                       int
	failures                int
	temp, vib, press, speed statAcc
}

type statAcc struct {
	sum, sumSq float64
}

func (s *statAcc) add(v float64)      { s.sum += v; s.sumSq += v * v }
func (s *statAcc) mean(n int) float64 { return s.sum / float64(n) }

// std is the sample standard deviation (n-1 denominator) over the
// cluster members, matching the rolling-window convention
func (s *statAcc) std(n int) float64 {
	if n < 2 {
		return 0
	}
	mean := s.mean(n)
	variance := (s.sumSq - float64(n)*mean*mean) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func (c *clusterAccumulator) add(r telemetry.Reading) {
	c.n++
	if r.Failed {
		c.failures++
	}
	c.temp.add(r.Temperature)
	c.vib.add(r.Vibration)
	c.press.add(r.Pressure)
	c.speed.add(r.Speed)
}

func buildClusterRows(acc map[int]*clusterAccumulator) []ClusterRow {
	rows := make([]ClusterRow, 0, len(acc))
	for cluster, a := range acc {
		failureRate := float64(a.failures) / float64(a.n)
		score := round(failureRate*100, 2)
		rows = append(rows, ClusterRow{
			Cluster:        cluster,
			ClusterName:    clusterReportName(cluster),
			AvgTemperature: round(a.temp.mean(a.n), 2),
			StdTemperature: round(a.temp.std(a.n), 2),
			AvgVibration:   round(a.vib.mean(a.n), 3),
			StdVibration:   round(a.vib.std(a.n), 3),
			AvgPressure:    round(a.press.mean(a.n), 2),
			StdPressure:    round(a.press.std(a.n), 2),
			AvgSpeed:       round(a.speed.mean(a.n), 2),
			StdSpeed:       round(a.speed.std(a.n), 2),
			FailureRate:    round(failureRate, 4),
			Samples:        a.n,
			AnomalyScore:   score,
			ClusterType:    clusterType(score),
		})
	}
	return rows
}

// temperatureTrend classifies the recent temperature direction from
// the spread between the latest EMA value and the one a full period
// earlier. Short histories read as stable.
func temperatureTrend(history []telemetry.Reading) string {
	if len(history) < trendPeriod*2 {
		return TrendStable
	}
	temps := make([]float64, len(history))
	for i, r := range history {
		temps[i] = r.Temperature
	}
	ema := talib.Ema(temps, trendPeriod)

	delta := ema[len(ema)-1] - ema[len(ema)-1-trendPeriod]
	switch {
	case delta > trendDelta:
		return TrendRising
	case delta < -trendDelta:
		return TrendFalling
	default:
		return TrendStable
	}
}

func reportRiskLevel(p float64) string {
	switch {
	case p > reportHighRiskThreshold:
		return health.RiskHigh
	case p > reportMediumRiskThreshold:
		return health.RiskMedium
	default:
		return health.RiskLow
	}
}

func yieldRecommendation(efficiency float64) string {
	switch health.PerformanceLevel(efficiency) {
	case health.PerformanceExcellent:
		return YieldRecommendationExcellent
	case health.PerformanceGood:
		return YieldRecommendationGood
	default:
		return YieldRecommendationPoor
	}
}

func clusterType(anomalyScore float64) string {
	switch {
	case anomalyScore > criticalFailureRate:
		return ClusterTypeCritical
	case anomalyScore > warningFailureRate:
		return ClusterTypeWarning
	default:
		return ClusterTypeNormal
	}
}

// clusterReportName prefixes the operating-mode name with a stable
// letter so spreadsheet sorts group the clusters predictably
func clusterReportName(cluster int) string {
	name := health.ClusterName(cluster)
	if name == "Unknown" {
		return fmt.Sprintf("Cluster %d", cluster)
	}
	return "Cluster " + string(rune('A'+cluster)) + " - " + name
}

func sortFleet(fleet *Fleet) {
	sort.SliceStable(fleet.Failure, func(i, j int) bool {
		return fleet.Failure[i].FailureProbability > fleet.Failure[j].FailureProbability
	})
	sort.SliceStable(fleet.Yield, func(i, j int) bool {
		return fleet.Yield[i].YieldEfficiency > fleet.Yield[j].YieldEfficiency
	})
	sort.SliceStable(fleet.Clusters, func(i, j int) bool {
		return fleet.Clusters[i].AnomalyScore > fleet.Clusters[j].AnomalyScore
	})
	sort.SliceStable(fleet.Health, func(i, j int) bool {
		return fleet.Health[i].HealthScore < fleet.Health[j].HealthScore
	})
}

func sortedMachines(assessments map[string][]scoring.Assessment) []string {
	ids := make([]string, 0, len(assessments))
	for id := range assessments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
