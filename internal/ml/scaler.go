package ml

import (
	"encoding/json"
	"os"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// Scaler standardizes raw feature values with the mean and scale
// learned at fit time. Transform must be applied to exactly the
// feature columns, in the order, the scaler was fit on.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler reads fit parameters from a JSON sidecar file
func LoadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scaler %s", path)
	}

	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse scaler %s", path)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"scaler %s: mean/scale length mismatch (%d vs %d)", path, len(s.Mean), len(s.Scale))
	}
	return &s, nil
}

// Dim returns the feature dimension the scaler was fit on
func (s *Scaler) Dim() int {
	return len(s.Mean)
}

// Transform standardizes a feature matrix in place-safe fashion,
// returning a new matrix
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"row %d has %d features, scaler expects %d", i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			div := s.Scale[j]
			if div == 0 {
				// Constant training column; sklearn stores scale 1
				div = 1
			}
			scaled[j] = (v - s.Mean[j]) / div
		}
		out[i] = scaled
	}
	return out, nil
}
