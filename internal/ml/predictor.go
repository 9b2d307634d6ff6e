package ml

// Model family names. Artifact files on disk are keyed by these.
const (
	FamilyFailure = "failure"
	FamilyYield   = "yield"
	FamilyAnomaly = "anomaly"
)

// NumClusters is the fixed cluster count of the anomaly model
const NumClusters = 4

// Classifier predicts class probabilities over a scaled feature matrix.
// PredictProba returns the positive-class probability per input row.
type Classifier interface {
	PredictProba(x [][]float64) ([]float64, error)
}

// Regressor predicts a continuous value per input row
type Regressor interface {
	Predict(x [][]float64) ([]float64, error)
}

// Clusterer assigns a cluster id per input row
type Clusterer interface {
	PredictCluster(x [][]float64) ([]int, error)
}
