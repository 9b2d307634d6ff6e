package ml

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

// Snapshot is an immutable set of the three trained artifacts. A
// snapshot is built completely before it becomes visible and is never
// mutated afterwards; concurrent readers either see the whole old set
// or the whole new one.
type Snapshot struct {
	Failure  *ClassifierArtifact
	Yield    *RegressorArtifact
	Anomaly  *ClustererArtifact
	LoadedAt time.Time
}

// Loader builds a complete snapshot from an artifact directory
type Loader interface {
	Load(dir string) (*Snapshot, error)
}

// Registry owns the loaded artifacts for the lifetime of the process.
// Reloads are serialized and published atomically; in-flight readers
// keep the snapshot they started with.
type Registry struct {
	loader Loader
	log    *logger.Logger

	mu   sync.Mutex // serializes Load calls
	snap atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry with the given artifact loader
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader: loader,
		log:    logger.Get().With("component", "model_registry"),
	}
}

// Load builds a fresh snapshot from dir and publishes it. The load is
// all-or-nothing: on any failure the previous snapshot, if one exists,
// stays active.
func (r *Registry) Load(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	snap, err := r.loader.Load(dir)
	if err != nil {
		r.log.Errorw("Model load failed, keeping previous snapshot",
			"dir", dir, "error", err)
		return errors.Wrapf(errors.ErrModelLoad, "%v", err)
	}

	snap.LoadedAt = time.Now()
	r.snap.Store(snap)

	r.log.Infow("Models loaded",
		"dir", dir,
		"failure_features", len(snap.Failure.Schema),
		"yield_features", len(snap.Yield.Schema),
		"anomaly_features", len(snap.Anomaly.Schema),
		"duration", time.Since(start),
	)
	return nil
}

// Snapshot returns the current artifact set, or ErrModelsNotLoaded if
// no load has ever succeeded
func (r *Registry) Snapshot() (*Snapshot, error) {
	snap := r.snap.Load()
	if snap == nil {
		return nil, errors.ErrModelsNotLoaded
	}
	return snap, nil
}

// Loaded reports whether a snapshot is available
func (r *Registry) Loaded() bool {
	return r.snap.Load() != nil
}

// ONNXLoader loads sklearn-exported artifacts from disk. Each family
// contributes three files: <family>_model.onnx, <family>_scaler.json
// and <family>_features.json; all nine must load for the snapshot to
// be built.
type ONNXLoader struct{}

func (l *ONNXLoader) Load(dir string) (*Snapshot, error) {
	failure, err := l.loadFamily(dir, FamilyFailure)
	if err != nil {
		return nil, err
	}
	yield, err := l.loadFamily(dir, FamilyYield)
	if err != nil {
		return nil, err
	}
	anomaly, err := l.loadFamily(dir, FamilyAnomaly)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Failure: &ClassifierArtifact{Artifact: failure.artifact},
		Yield:   &RegressorArtifact{Artifact: yield.artifact},
		Anomaly: &ClustererArtifact{Artifact: anomaly.artifact},
	}

	snap.Failure.Model, err = LoadONNXClassifier(failure.modelPath, len(failure.artifact.Schema), 2)
	if err != nil {
		return nil, err
	}
	snap.Yield.Model, err = LoadONNXRegressor(yield.modelPath, len(yield.artifact.Schema))
	if err != nil {
		return nil, err
	}
	snap.Anomaly.Model, err = LoadONNXClusterer(anomaly.modelPath, len(anomaly.artifact.Schema), NumClusters)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

type loadedFamily struct {
	artifact  Artifact
	modelPath string
}

func (l *ONNXLoader) loadFamily(dir, family string) (*loadedFamily, error) {
	schema, err := LoadSchema(filepath.Join(dir, fmt.Sprintf("%s_features.json", family)))
	if err != nil {
		return nil, err
	}
	scaler, err := LoadScaler(filepath.Join(dir, fmt.Sprintf("%s_scaler.json", family)))
	if err != nil {
		return nil, err
	}

	artifact := Artifact{Name: family, Schema: schema, Scaler: scaler}
	if err := artifact.validate(); err != nil {
		return nil, err
	}

	return &loadedFamily{
		artifact:  artifact,
		modelPath: filepath.Join(dir, fmt.Sprintf("%s_model.onnx", family)),
	}, nil
}
