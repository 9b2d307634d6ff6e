package features

import (
	"math"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/domain/telemetry"
)

// RollingWindow is the trailing window for rolling statistics:
// 12 samples, one hour at 5-minute sampling. It must match the window
// the models were trained with.
const RollingWindow = 12

// FeatureRow is the derived feature vector for one reading. Values are
// keyed by feature name; consumers project them onto a model's schema
// by name, never by position.
type FeatureRow struct {
	MachineID string
	Timestamp time.Time
	Values    map[string]float64
}

// Engine derives feature rows from per-machine reading histories.
// It holds no state between calls; every invocation recomputes from
// the full supplied history.
type Engine struct{}

// NewEngine creates a feature engine
func NewEngine() *Engine {
	return &Engine{}
}

// Derive computes one FeatureRow per reading of a single machine's
// history. Input is sorted defensively; unsorted input would silently
// corrupt every temporal feature below. The output is deterministic
// for a fixed input and free of undefined values: temporal features
// with insufficient history are backward-filled from the first defined
// value, then zero-filled.
func (e *Engine) Derive(history []telemetry.Reading) ([]FeatureRow, error) {
	if len(history) == 0 {
		return nil, nil
	}

	sorted := make([]telemetry.Reading, len(history))
	copy(sorted, history)
	telemetry.SortHistory(sorted)

	rows := make([]FeatureRow, len(sorted))
	for i, r := range sorted {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rows[i] = FeatureRow{
			MachineID: r.MachineID,
			Timestamp: r.Timestamp,
			Values:    make(map[string]float64, len(All)),
		}
		e.rawFeatures(&rows[i], r)
		e.calendarFeatures(&rows[i], r.Timestamp)
		e.interactionFeatures(&rows[i], r)
	}

	e.lagFeatures(rows, sorted)
	e.rollingFeatures(rows, sorted)
	e.resolveUndefined(rows)

	return rows, nil
}

// rawFeatures copies the raw channels into the row
func (e *Engine) rawFeatures(row *FeatureRow, r telemetry.Reading) {
	row.Values[FeatTemperature] = r.Temperature
	row.Values[FeatVibration] = r.Vibration
	row.Values[FeatPressure] = r.Pressure
	row.Values[FeatSpeed] = r.Speed
	row.Values[FeatRuntimeHours] = r.RuntimeHours
}

// calendarFeatures extracts time-of-day and calendar position.
// day_of_week is 0 on Monday to match the training convention.
func (e *Engine) calendarFeatures(row *FeatureRow, ts time.Time) {
	row.Values[FeatHour] = float64(ts.Hour())
	row.Values[FeatDayOfWeek] = float64((int(ts.Weekday()) + 6) % 7)
	row.Values[FeatDayOfMonth] = float64(ts.Day())
}

// interactionFeatures derives cross-channel products and ratios.
// The +1 in the ratio denominator guards against zero reported speed.
func (e *Engine) interactionFeatures(row *FeatureRow, r telemetry.Reading) {
	row.Values[FeatTempVibrationInteraction] = r.Temperature * r.Vibration
	row.Values[FeatPressureSpeedRatio] = r.Pressure / (r.Speed + 1)
}

// lagFeatures derives lag-1 values and first differences per channel.
// Both are undefined for the first reading of a machine.
func (e *Engine) lagFeatures(rows []FeatureRow, sorted []telemetry.Reading) {
	for i := range rows {
		for _, ch := range laggedChannels {
			lagName := ch + "_lag1"
			changeName := ch + "_change"

			if i == 0 {
				rows[i].Values[lagName] = math.NaN()
				rows[i].Values[changeName] = math.NaN()
				continue
			}

			cur, _ := sorted[i].Channel(ch)
			prev, _ := sorted[i-1].Channel(ch)
			rows[i].Values[lagName] = prev
			rows[i].Values[changeName] = cur - prev
		}
	}
}

// rollingFeatures derives trailing-window mean and standard deviation
// per channel. Undefined until RollingWindow readings have accumulated.
// The standard deviation is the sample deviation (n-1 denominator),
// matching the training-time rolling convention.
func (e *Engine) rollingFeatures(rows []FeatureRow, sorted []telemetry.Reading) {
	for _, ch := range rollingChannels {
		values := make([]float64, len(sorted))
		for i, r := range sorted {
			values[i], _ = r.Channel(ch)
		}

		meanName := ch + "_rolling_mean"
		stdName := ch + "_rolling_std"

		for i := range rows {
			if i < RollingWindow-1 {
				rows[i].Values[meanName] = math.NaN()
				rows[i].Values[stdName] = math.NaN()
				continue
			}
			window := values[i-RollingWindow+1 : i+1]
			mean := windowMean(window)
			rows[i].Values[meanName] = mean
			rows[i].Values[stdName] = windowStd(window, mean)
		}
	}
}

// resolveUndefined applies the two-stage fill policy per feature
// column: backward-fill from the next defined value in time order,
// then zero-fill anything still undefined. The order matters;
// zero-filling first would corrupt the early rows of short-history
// machines.
func (e *Engine) resolveUndefined(rows []FeatureRow) {
	for _, name := range All {
		next := math.NaN()
		for i := len(rows) - 1; i >= 0; i-- {
			v := rows[i].Values[name]
			if math.IsNaN(v) {
				rows[i].Values[name] = next
			} else {
				next = v
			}
		}
		for i := range rows {
			if math.IsNaN(rows[i].Values[name]) {
				rows[i].Values[name] = 0
			}
		}
	}
}

func windowMean(window []float64) float64 {
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

func windowStd(window []float64, mean float64) float64 {
	if len(window) < 2 {
		return 0
	}
	variance := 0.0
	for _, v := range window {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(window) - 1)
	return math.Sqrt(variance)
}
