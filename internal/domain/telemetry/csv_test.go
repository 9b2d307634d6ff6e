package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

const sampleTable = `timestamp,machine_id,temperature,vibration,pressure,speed,runtime_hours,is_failure
2024-03-04 08:05:00,M001,71.2,1.05,101.0,1510,5001,0
2024-03-04 08:00:00,M001,70.0,1.00,100.0,1500,5000,0
2024-03-04 08:00:00,M002,85.5,2.40,95.0,1200,8100,1
`

func TestReadTable_PartitionsAndSorts(t *testing.T) {
	histories, err := ReadTable(strings.NewReader(sampleTable))
	require.NoError(t, err)

	require.Len(t, histories, 2)
	require.Len(t, histories["M001"], 2)
	require.Len(t, histories["M002"], 1)

	// Out-of-order input rows come back sorted by timestamp
	first := histories["M001"][0]
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, 70.0, first.Temperature)
	assert.Equal(t, 1.0, first.Vibration)
	assert.False(t, first.Failed)
	assert.True(t, first.Labeled)

	assert.True(t, histories["M002"][0].Failed)
}

func TestReadTable_ColumnOrderIrrelevant(t *testing.T) {
	shuffled := `machine_id,runtime_hours,timestamp,speed,pressure,vibration,temperature
M001,5000,2024-03-04 08:00:00,1500,100.0,1.0,70.0
`
	histories, err := ReadTable(strings.NewReader(shuffled))
	require.NoError(t, err)

	r := histories["M001"][0]
	assert.Equal(t, 70.0, r.Temperature)
	assert.Equal(t, 1500.0, r.Speed)
	assert.Equal(t, 5000.0, r.RuntimeHours)
	assert.False(t, r.Labeled, "no is_failure column means unlabeled data")
}

func TestReadTable_MissingRequiredColumn(t *testing.T) {
	noVibration := `timestamp,machine_id,temperature,pressure,speed,runtime_hours
2024-03-04 08:00:00,M001,70.0,100.0,1500,5000
`
	_, err := ReadTable(strings.NewReader(noVibration))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "vibration")
}

func TestReadTable_EmptyChannelValue(t *testing.T) {
	blank := `timestamp,machine_id,temperature,vibration,pressure,speed,runtime_hours
2024-03-04 08:00:00,M001,70.0,,100.0,1500,5000
`
	_, err := ReadTable(strings.NewReader(blank))
	require.Error(t, err)

	var missing *errors.MissingChannelError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "M001", missing.MachineID)
	assert.Equal(t, ChannelVibration, missing.Channel)
}

func TestReadTable_UnparseableTimestamp(t *testing.T) {
	bad := `timestamp,machine_id,temperature,vibration,pressure,speed,runtime_hours
yesterday,M001,70.0,1.0,100.0,1500,5000
`
	_, err := ReadTable(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestReadTable_RFC3339Timestamps(t *testing.T) {
	table := `timestamp,machine_id,temperature,vibration,pressure,speed,runtime_hours
2024-03-04T08:00:00Z,M001,70.0,1.0,100.0,1500,5000
`
	histories, err := ReadTable(strings.NewReader(table))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), histories["M001"][0].Timestamp)
}

func TestSummarize(t *testing.T) {
	histories, err := ReadTable(strings.NewReader(sampleTable))
	require.NoError(t, err)

	stats := histories.Summarize()
	assert.Equal(t, 3, stats.TotalSamples)
	assert.Equal(t, 2, stats.TotalMachines)
	assert.Equal(t, 1, stats.TotalFailures)
	assert.InDelta(t, 100.0/3, stats.FailureRate, 0.01)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), stats.Start)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 5, 0, 0, time.UTC), stats.End)
	assert.InDelta(t, (71.2+70.0+85.5)/3, stats.AvgTemperature, 1e-9)
}

func TestPartition_StableForEqualTimestamps(t *testing.T) {
	ts := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	readings := []Reading{
		{MachineID: "M001", Timestamp: ts, Temperature: 1},
		{MachineID: "M001", Timestamp: ts, Temperature: 2},
	}

	h := Partition(readings)
	assert.Equal(t, 1.0, h["M001"][0].Temperature)
	assert.Equal(t, 2.0, h["M001"][1].Temperature)
}
