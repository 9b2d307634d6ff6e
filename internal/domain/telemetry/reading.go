package telemetry

import (
	"math"
	"sort"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// Sensor channel names as they appear in the input table
const (
	ChannelTemperature  = "temperature"
	ChannelVibration    = "vibration"
	ChannelPressure     = "pressure"
	ChannelSpeed        = "speed"
	ChannelRuntimeHours = "runtime_hours"
)

// RequiredChannels lists the raw channels every reading must carry
var RequiredChannels = []string{
	ChannelTemperature,
	ChannelVibration,
	ChannelPressure,
	ChannelSpeed,
	ChannelRuntimeHours,
}

// Reading is one timestamped sensor sample for one machine
type Reading struct {
	MachineID    string    `json:"machine_id"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Vibration    float64   `json:"vibration"`
	Pressure     float64   `json:"pressure"`
	Speed        float64   `json:"speed"`
	RuntimeHours float64   `json:"runtime_hours"`

	// Failed is the historical failure label. Only meaningful when
	// Labeled is true; serving-time readings carry no label.
	Failed  bool `json:"is_failure,omitempty"`
	Labeled bool `json:"-"`
}

// Channel returns the value of a raw channel by name
func (r Reading) Channel(name string) (float64, bool) {
	switch name {
	case ChannelTemperature:
		return r.Temperature, true
	case ChannelVibration:
		return r.Vibration, true
	case ChannelPressure:
		return r.Pressure, true
	case ChannelSpeed:
		return r.Speed, true
	case ChannelRuntimeHours:
		return r.RuntimeHours, true
	}
	return 0, false
}

// Validate checks that every required channel carries a usable value
func (r Reading) Validate() error {
	for _, name := range RequiredChannels {
		v, _ := r.Channel(name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewMissingChannelError(r.MachineID, name)
		}
	}
	return nil
}

// Histories maps a machine id to its ordered reading sequence
type Histories map[string][]Reading

// Partition groups a flat reading slice by machine and sorts each
// partition by timestamp
func Partition(readings []Reading) Histories {
	h := make(Histories)
	for _, r := range readings {
		h[r.MachineID] = append(h[r.MachineID], r)
	}
	for id := range h {
		SortHistory(h[id])
	}
	return h
}

// SortHistory orders readings by timestamp, oldest first. The sort is
// stable so equal-timestamp readings keep their input order.
func SortHistory(history []Reading) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
}

// Machines returns the machine ids present, sorted for deterministic
// iteration
func (h Histories) Machines() []string {
	ids := make([]string, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Statistics summarizes a fleet history table
type Statistics struct {
	TotalSamples  int       `json:"total_samples"`
	TotalMachines int       `json:"total_machines"`
	TotalFailures int       `json:"total_failures"`
	FailureRate   float64   `json:"failure_rate_percentage"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`

	AvgTemperature  float64 `json:"avg_temperature"`
	AvgVibration    float64 `json:"avg_vibration"`
	AvgPressure     float64 `json:"avg_pressure"`
	AvgSpeed        float64 `json:"avg_speed"`
	AvgRuntimeHours float64 `json:"avg_runtime_hours"`
}

// Summarize computes fleet-wide statistics over all partitions
func (h Histories) Summarize() Statistics {
	var s Statistics
	var sumTemp, sumVib, sumPres, sumSpeed, sumRuntime float64

	for _, history := range h {
		if len(history) == 0 {
			continue
		}
		s.TotalMachines++
		for _, r := range history {
			s.TotalSamples++
			if r.Labeled && r.Failed {
				s.TotalFailures++
			}
			sumTemp += r.Temperature
			sumVib += r.Vibration
			sumPres += r.Pressure
			sumSpeed += r.Speed
			sumRuntime += r.RuntimeHours

			if s.Start.IsZero() || r.Timestamp.Before(s.Start) {
				s.Start = r.Timestamp
			}
			if r.Timestamp.After(s.End) {
				s.End = r.Timestamp
			}
		}
	}

	if s.TotalSamples > 0 {
		n := float64(s.TotalSamples)
		s.FailureRate = float64(s.TotalFailures) / n * 100
		s.AvgTemperature = sumTemp / n
		s.AvgVibration = sumVib / n
		s.AvgPressure = sumPres / n
		s.AvgSpeed = sumSpeed / n
		s.AvgRuntimeHours = sumRuntime / n
	}
	return s
}
