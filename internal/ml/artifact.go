package ml

import (
	"encoding/json"
	"os"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/features"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

// Artifact pairs a trained model's scaler with the exact ordered
// feature schema it was fit on. Feature rows are projected onto the
// schema by name; the projection fails rather than run a model on
// missing or misordered columns.
type Artifact struct {
	Name   string
	Schema []string
	Scaler *Scaler
}

// LoadSchema reads an ordered feature-name list from a JSON sidecar
func LoadSchema(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read feature schema %s", path)
	}

	var schema []string
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, errors.Wrapf(err, "failed to parse feature schema %s", path)
	}
	if len(schema) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "feature schema %s is empty", path)
	}
	return schema, nil
}

// Project maps feature rows onto the artifact's schema, in schema
// order. Extra features in a row are ignored; any schema feature
// absent from a row fails with SchemaMismatchError.
func (a *Artifact) Project(rows []features.FeatureRow) ([][]float64, error) {
	x := make([][]float64, len(rows))
	for i, row := range rows {
		vec := make([]float64, len(a.Schema))
		var missing []string
		for j, name := range a.Schema {
			v, ok := row.Values[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			vec[j] = v
		}
		if len(missing) > 0 {
			return nil, errors.NewSchemaMismatchError(a.Name, missing)
		}
		x[i] = vec
	}
	return x, nil
}

// Prepare projects rows onto the schema and standardizes them
func (a *Artifact) Prepare(rows []features.FeatureRow) ([][]float64, error) {
	x, err := a.Project(rows)
	if err != nil {
		return nil, err
	}
	return a.Scaler.Transform(x)
}

// validate checks the scaler dimension agrees with the schema
func (a *Artifact) validate() error {
	if a.Scaler.Dim() != len(a.Schema) {
		return errors.Wrapf(errors.ErrInvalidInput,
			"artifact %s: scaler fit on %d features, schema lists %d",
			a.Name, a.Scaler.Dim(), len(a.Schema))
	}
	return nil
}

// ClassifierArtifact is a classification model with its scaler and schema
type ClassifierArtifact struct {
	Artifact
	Model Classifier
}

// Proba prepares the rows and returns the positive-class probability
// per row
func (a *ClassifierArtifact) Proba(rows []features.FeatureRow) ([]float64, error) {
	x, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	return a.Model.PredictProba(x)
}

// RegressorArtifact is a regression model with its scaler and schema
type RegressorArtifact struct {
	Artifact
	Model Regressor
}

// Predict prepares the rows and returns the predicted value per row
func (a *RegressorArtifact) Predict(rows []features.FeatureRow) ([]float64, error) {
	x, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	return a.Model.Predict(x)
}

// ClustererArtifact is a clustering model with its scaler and schema
type ClustererArtifact struct {
	Artifact
	Model Clusterer
}

// Clusters prepares the rows and returns the cluster id per row
func (a *ClustererArtifact) Clusters(rows []features.FeatureRow) ([]int, error) {
	x, err := a.Prepare(rows)
	if err != nil {
		return nil, err
	}
	return a.Model.PredictCluster(x)
}
