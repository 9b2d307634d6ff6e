package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/features"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

func testRow(values map[string]float64) features.FeatureRow {
	return features.FeatureRow{
		MachineID: "M001",
		Timestamp: time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC),
		Values:    values,
	}
}

func TestArtifact_Project_SchemaOrder(t *testing.T) {
	artifact := Artifact{
		Name:   FamilyFailure,
		Schema: []string{"temperature", "vibration", "pressure"},
		Scaler: &Scaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}},
	}

	row := testRow(map[string]float64{
		"pressure":    100,
		"temperature": 70,
		"vibration":   1.5,
	})

	x, err := artifact.Project([]features.FeatureRow{row})
	require.NoError(t, err)
	require.Len(t, x, 1)
	assert.Equal(t, []float64{70, 1.5, 100}, x[0])
}

func TestArtifact_Project_IgnoresExtraFeatures(t *testing.T) {
	artifact := Artifact{
		Name:   FamilyYield,
		Schema: []string{"temperature", "vibration"},
		Scaler: &Scaler{Mean: []float64{0, 0}, Scale: []float64{1, 1}},
	}

	exact := testRow(map[string]float64{"temperature": 70, "vibration": 1.5})
	padded := testRow(map[string]float64{
		"temperature": 70,
		"vibration":   1.5,
		"pressure":    100,
		"unrelated":   42,
	})

	fromExact, err := artifact.Project([]features.FeatureRow{exact})
	require.NoError(t, err)
	fromPadded, err := artifact.Project([]features.FeatureRow{padded})
	require.NoError(t, err)

	assert.Equal(t, fromExact, fromPadded, "extra features must not affect projection")
}

func TestArtifact_Project_MissingFeatures(t *testing.T) {
	artifact := Artifact{
		Name:   FamilyAnomaly,
		Schema: []string{"temperature", "vibration", "pressure"},
		Scaler: &Scaler{Mean: []float64{0, 0, 0}, Scale: []float64{1, 1, 1}},
	}

	row := testRow(map[string]float64{"temperature": 70})

	_, err := artifact.Project([]features.FeatureRow{row})
	require.Error(t, err)

	var mismatch *errors.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, FamilyAnomaly, mismatch.Artifact)
	assert.ElementsMatch(t, []string{"vibration", "pressure"}, mismatch.Missing)
}

func TestScaler_Transform(t *testing.T) {
	scaler := &Scaler{Mean: []float64{70, 1.0}, Scale: []float64{2, 0.5}}

	out, err := scaler.Transform([][]float64{{74, 1.5}, {70, 1.0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, out[0])
	assert.Equal(t, []float64{0, 0}, out[1])
}

func TestScaler_Transform_DimensionMismatch(t *testing.T) {
	scaler := &Scaler{Mean: []float64{70}, Scale: []float64{2}}

	_, err := scaler.Transform([][]float64{{74, 1.5}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestScaler_Transform_ZeroScaleGuard(t *testing.T) {
	scaler := &Scaler{Mean: []float64{5}, Scale: []float64{0}}

	out, err := scaler.Transform([][]float64{{8}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out[0][0])
}

func TestArtifact_Validate(t *testing.T) {
	artifact := Artifact{
		Name:   FamilyFailure,
		Schema: []string{"temperature", "vibration"},
		Scaler: &Scaler{Mean: []float64{0}, Scale: []float64{1}},
	}

	err := artifact.validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
