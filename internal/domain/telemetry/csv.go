package telemetry

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// Timestamp layouts accepted in the sensor table. The simulator writes
// "2006-01-02 15:04:05"; exports from other systems use RFC 3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// LoadCSV reads the sensor history table and partitions it by machine.
// Columns are resolved by header name, never by position. The optional
// is_failure column marks labeled historical data.
func LoadCSV(path string) (Histories, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sensor data %s", path)
	}
	defer f.Close()

	return ReadTable(f)
}

// ReadTable parses a sensor CSV stream into per-machine histories
func ReadTable(r io.Reader) (Histories, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	for _, required := range append([]string{"machine_id", "timestamp"}, RequiredChannels...) {
		if _, ok := col[required]; !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "sensor table missing column %q", required)
		}
	}
	_, labeled := col["is_failure"]

	var readings []Reading
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read csv line %d", line)
		}

		machineID := record[col["machine_id"]]

		ts, err := parseTimestamp(record[col["timestamp"]])
		if err != nil {
			return nil, errors.Wrapf(err, "machine %s: bad timestamp at line %d", machineID, line)
		}

		reading := Reading{MachineID: machineID, Timestamp: ts, Labeled: labeled}
		for _, name := range RequiredChannels {
			raw := record[col[name]]
			if raw == "" {
				return nil, errors.NewMissingChannelError(machineID, name)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.NewMissingChannelError(machineID, name)
			}
			setChannel(&reading, name, v)
		}
		if labeled {
			reading.Failed = record[col["is_failure"]] == "1"
		}

		if err := reading.Validate(); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return Partition(readings), nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.Newf("unparseable timestamp %q", raw)
}

func setChannel(r *Reading, name string, v float64) {
	switch name {
	case ChannelTemperature:
		r.Temperature = v
	case ChannelVibration:
		r.Vibration = v
	case ChannelPressure:
		r.Pressure = v
	case ChannelSpeed:
		r.Speed = v
	case ChannelRuntimeHours:
		r.RuntimeHours = v
	}
}
