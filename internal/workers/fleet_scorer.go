package workers

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/metrics"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/storage"
)

// Broadcaster pushes fleet updates to connected dashboard clients
type Broadcaster interface {
	BroadcastUpdate(kind string, payload interface{})
}

// FleetScorer periodically rescores the whole fleet from the sensor
// table, refreshes the assessment store and pushes the new state to
// dashboard clients. Scoring failures leave the previous stored
// assessments in place.
type FleetScorer struct {
	*BaseWorker

	pipeline  *scoring.Pipeline
	store     *storage.AssessmentStore
	hub       Broadcaster
	sensorCSV string
}

// NewFleetScorer creates the fleet scoring worker. hub may be nil
// when the server runs without WebSocket support.
func NewFleetScorer(
	pipeline *scoring.Pipeline,
	store *storage.AssessmentStore,
	hub Broadcaster,
	sensorCSV string,
	interval time.Duration,
	enabled bool,
) *FleetScorer {
	return &FleetScorer{
		BaseWorker: NewBaseWorker("fleet_scorer", interval, enabled),
		pipeline:   pipeline,
		store:      store,
		hub:        hub,
		sensorCSV:  sensorCSV,
	}
}

// Run loads the sensor table and scores the latest reading of every
// machine
func (w *FleetScorer) Run(ctx context.Context) error {
	start := time.Now()

	histories, err := telemetry.LoadCSV(w.sensorCSV)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	results, err := w.pipeline.Score(histories, scoring.ModeLatestOnly)
	metrics.RecordScoringRun("latest_only", len(results), time.Since(start), err)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.store.PutRun(results)
	w.publishFleetState(results)

	var readings int
	for _, history := range histories {
		readings += len(history)
	}
	w.Log().Infow("Fleet scored",
		"machines", len(results),
		"readings", humanize.Comma(int64(readings)),
		"duration", time.Since(start),
	)

	w.RecordRun(time.Since(start))
	return nil
}

func (w *FleetScorer) publishFleetState(results map[string][]scoring.Assessment) {
	var anomalous int
	snapshot := make([]scoring.Assessment, 0, len(results))

	for _, assessments := range results {
		latest := assessments[len(assessments)-1]
		snapshot = append(snapshot, latest)

		metrics.FleetHealthScore.WithLabelValues(latest.MachineID).Set(latest.HealthScore)
		if latest.IsAnomalous {
			anomalous++
		}
	}
	metrics.FleetAnomalous.Set(float64(anomalous))

	if w.hub != nil {
		w.hub.BroadcastUpdate("fleet_state", snapshot)
	}
}
