package reports

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Export file names, fixed because downstream dashboards import them
// by name
const (
	FailureReportFile = "failure_predictions.csv"
	YieldReportFile   = "yield_performance.csv"
	AnomalyReportFile = "anomaly_clusters.csv"
	HealthReportFile  = "machine_health_overview.csv"
)

// Export writes the four fleet reports into dir, creating it if
// needed. Files are overwritten in place.
func (f *Fleet) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrInternal, "create report dir: %v", err)
	}

	log := logger.Get().With("component", "report_export")
	for _, report := range []struct {
		file  string
		write func(io.Writer) error
	}{
		{FailureReportFile, f.WriteFailureCSV},
		{YieldReportFile, f.WriteYieldCSV},
		{AnomalyReportFile, f.WriteAnomalyCSV},
		{HealthReportFile, f.WriteHealthCSV},
	} {
		path := filepath.Join(dir, report.file)
		if err := writeFile(path, report.write); err != nil {
			return err
		}
		log.Infow("Report written", "path", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrInternal, "create %s: %v", path, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return file.Close()
}

// WriteFailureCSV writes the failure predictions report
func (f *Fleet) WriteFailureCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"machine_id", "failure_probability", "runtime_hours",
		"avg_temperature", "avg_vibration", "avg_pressure", "avg_speed",
		"total_failures", "risk_level", "maintenance_priority", "recommendation",
	}); err != nil {
		return err
	}
	for _, row := range f.Failure {
		if err := cw.Write([]string{
			row.MachineID,
			formatFloat(row.FailureProbability),
			formatFloat(row.RuntimeHours),
			formatFloat(row.AvgTemperature),
			formatFloat(row.AvgVibration),
			formatFloat(row.AvgPressure),
			formatFloat(row.AvgSpeed),
			strconv.Itoa(row.TotalFailures),
			row.RiskLevel,
			strconv.Itoa(row.MaintenancePriority),
			row.Recommendation,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYieldCSV writes the yield performance report
func (f *Fleet) WriteYieldCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"machine_id", "predicted_yield", "avg_temperature", "avg_vibration",
		"avg_pressure", "avg_speed", "runtime_hours", "yield_efficiency_pct",
		"performance_level", "optimization_potential_pct", "recommendation",
	}); err != nil {
		return err
	}
	for _, row := range f.Yield {
		if err := cw.Write([]string{
			row.MachineID,
			formatFloat(row.PredictedYield),
			formatFloat(row.AvgTemperature),
			formatFloat(row.AvgVibration),
			formatFloat(row.AvgPressure),
			formatFloat(row.AvgSpeed),
			formatFloat(row.RuntimeHours),
			formatFloat(row.YieldEfficiency),
			row.PerformanceLevel,
			formatFloat(row.OptimizationPotential),
			row.Recommendation,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnomalyCSV writes the per-cluster anomaly report
func (f *Fleet) WriteAnomalyCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"cluster", "cluster_name",
		"avg_temperature", "std_temperature",
		"avg_vibration", "std_vibration",
		"avg_pressure", "std_pressure",
		"avg_speed", "std_speed",
		"failure_rate", "samples", "anomaly_score", "cluster_type",
	}); err != nil {
		return err
	}
	for _, row := range f.Clusters {
		if err := cw.Write([]string{
			strconv.Itoa(row.Cluster),
			row.ClusterName,
			formatFloat(row.AvgTemperature),
			formatFloat(row.StdTemperature),
			formatFloat(row.AvgVibration),
			formatFloat(row.StdVibration),
			formatFloat(row.AvgPressure),
			formatFloat(row.StdPressure),
			formatFloat(row.AvgSpeed),
			formatFloat(row.StdSpeed),
			formatFloat(row.FailureRate),
			strconv.Itoa(row.Samples),
			formatFloat(row.AnomalyScore),
			row.ClusterType,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHealthCSV writes the machine health overview report
func (f *Fleet) WriteHealthCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"machine_id", "timestamp", "health_score", "health_status",
		"failure_probability", "predicted_yield", "cluster", "temperature_trend",
		"temperature", "vibration", "pressure", "speed", "runtime_hours",
	}); err != nil {
		return err
	}
	for _, row := range f.Health {
		if err := cw.Write([]string{
			row.MachineID,
			row.Timestamp.Format(time.RFC3339),
			formatFloat(row.HealthScore),
			row.HealthStatus,
			formatFloat(row.FailureProbability),
			formatFloat(row.PredictedYield),
			strconv.Itoa(row.Cluster),
			row.TemperatureTrend,
			formatFloat(row.Temperature),
			formatFloat(row.Vibration),
			formatFloat(row.Pressure),
			formatFloat(row.Speed),
			formatFloat(row.RuntimeHours),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
