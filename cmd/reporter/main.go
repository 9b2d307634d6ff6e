// Command reporter scores the full sensor history and writes the
// fleet CSV reports consumed by the BI dashboards.
package main

import (
	"flag"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/config"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/ml"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/reports"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/scoring"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

func main() {
	outputDir := flag.String("out", "reports", "directory for the generated CSV reports")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get().With("component", "reporter")
	start := time.Now()

	histories, err := telemetry.LoadCSV(cfg.Data.SensorCSV)
	if err != nil {
		log.Fatalf("Failed to load sensor data: %v", err)
	}
	stats := histories.Summarize()
	log.Infow("Sensor data loaded",
		"samples", humanize.Comma(int64(stats.TotalSamples)),
		"machines", stats.TotalMachines,
	)

	registry := ml.NewRegistry(&ml.ONNXLoader{})
	if err := registry.Load(cfg.Models.Dir); err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}

	pipeline := scoring.NewPipeline(registry)
	assessments, err := pipeline.Score(histories, scoring.ModeAllRows)
	if err != nil {
		log.Fatalf("Scoring failed: %v", err)
	}

	fleet, err := reports.NewAggregator().Build(histories, assessments)
	if err != nil {
		log.Fatalf("Report aggregation failed: %v", err)
	}

	if err := fleet.Export(*outputDir); err != nil {
		log.Fatalf("Report export failed: %v", err)
	}

	log.Infow("All reports generated",
		"dir", *outputDir,
		"duration", time.Since(start),
	)
}
