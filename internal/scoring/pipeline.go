package scoring

import (
	"github.com/google/uuid"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/features"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/health"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Mode selects which feature rows get scored
type Mode int

const (
	// ModeLatestOnly scores the most recent reading per machine,
	// used by live dashboards
	ModeLatestOnly Mode = iota

	// ModeAllRows scores every reading, used by batch reporting
	ModeAllRows
)

// Pipeline orchestrates the feature engine and model registry into
// per-machine assessments. It is stateless per invocation; every call
// recomputes features from the full supplied history, even when only
// the latest row is scored, because the temporal features need the
// trailing window.
type Pipeline struct {
	engine   *features.Engine
	registry *ml.Registry
	log      *logger.Logger
}

// NewPipeline creates a scoring pipeline over a model registry
func NewPipeline(registry *ml.Registry) *Pipeline {
	return &Pipeline{
		engine:   features.NewEngine(),
		registry: registry,
		log:      logger.Get().With("component", "scoring_pipeline"),
	}
}

// Score produces assessments for every machine with at least one
// reading. Machines with empty histories are omitted from the result,
// never emitted with placeholder values. The whole call fails on the
// first typed error; partial results are never returned.
func (p *Pipeline) Score(histories telemetry.Histories, mode Mode) (map[string][]Assessment, error) {
	snap, err := p.registry.Snapshot()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	results := make(map[string][]Assessment, len(histories))

	for _, machineID := range histories.Machines() {
		history := histories[machineID]
		if len(history) == 0 {
			continue
		}

		assessments, err := p.scoreMachine(snap, history, mode)
		if err != nil {
			return nil, err
		}
		results[machineID] = assessments
	}

	p.log.Debugw("Scoring run complete",
		"run_id", runID,
		"mode", mode,
		"machines", len(results),
	)
	return results, nil
}

// scoreMachine derives features over the machine's full history,
// selects the rows for the mode and runs all three model families
// against a single registry snapshot.
func (p *Pipeline) scoreMachine(snap *ml.Snapshot, history []telemetry.Reading, mode Mode) ([]Assessment, error) {
	rows, err := p.engine.Derive(history)
	if err != nil {
		return nil, err
	}

	selected := rows
	if mode == ModeLatestOnly {
		selected = rows[len(rows)-1:]
	}

	probs, err := snap.Failure.Proba(selected)
	if err != nil {
		return nil, err
	}
	yields, err := snap.Yield.Predict(selected)
	if err != nil {
		return nil, err
	}
	clusters, err := snap.Anomaly.Clusters(selected)
	if err != nil {
		return nil, err
	}

	assessments := make([]Assessment, len(selected))
	for i, row := range selected {
		assessments[i] = p.assemble(row, probs[i], yields[i], clusters[i])
	}
	return assessments, nil
}

// assemble fuses the three model outputs for one row into an
// Assessment with the contract's rounding applied
func (p *Pipeline) assemble(row features.FeatureRow, prob, yieldRaw float64, cluster int) Assessment {
	yieldDisplay := health.ClampYield(yieldRaw)
	riskLevel, recommendation := health.RiskLevel(prob)
	score := health.Score(prob, yieldDisplay)

	return Assessment{
		MachineID: row.MachineID,
		Timestamp: row.Timestamp,

		FailureProbability: round(prob, 4),
		RiskLevel:          riskLevel,
		Recommendation:     recommendation,

		PredictedYieldRaw:     round(yieldRaw, 2),
		PredictedYieldDisplay: round(yieldDisplay, 2),
		PerformanceLevel:      health.PerformanceLevel(yieldDisplay),

		Cluster:     cluster,
		ClusterName: health.ClusterName(cluster),
		IsAnomalous: health.IsAnomalous(cluster),

		HealthScore:  round(score, 2),
		HealthStatus: health.Status(score),

		Temperature:  round(row.Values[features.FeatTemperature], 2),
		Vibration:    round(row.Values[features.FeatVibration], 3),
		Pressure:     round(row.Values[features.FeatPressure], 2),
		Speed:        round(row.Values[features.FeatSpeed], 2),
		RuntimeHours: round(row.Values[features.FeatRuntimeHours], 2),
	}
}
