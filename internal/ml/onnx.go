package ml

import (
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

var onnxInitOnce sync.Once
var onnxInitErr error

// initRuntime initializes the ONNX runtime environment once per process
func initRuntime() error {
	onnxInitOnce.Do(func() {
		onnxInitErr = onnxruntime.InitializeEnvironment()
	})
	return onnxInitErr
}

// onnxSession wraps an ONNX Runtime session over a model exported with
// input "input" and outputs per model kind
type onnxSession struct {
	session *onnxruntime.DynamicAdvancedSession
	dim     int
}

func newSession(modelPath string, dim int, outputs []string) (*onnxSession, error) {
	if err := initRuntime(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{"input"}, outputs, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", modelPath)
	}

	return &onnxSession{session: session, dim: dim}, nil
}

// inputTensor flattens a feature matrix into a [n, dim] tensor
func (s *onnxSession) inputTensor(x [][]float64) (*onnxruntime.Tensor[float64], error) {
	flat := make([]float64, 0, len(x)*s.dim)
	for i, row := range x {
		if len(row) != s.dim {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"row %d has %d features, model expects %d", i, len(row), s.dim)
		}
		flat = append(flat, row...)
	}

	shape := onnxruntime.NewShape(int64(len(x)), int64(s.dim))
	tensor, err := onnxruntime.NewTensor(shape, flat)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	return tensor, nil
}

// Destroy releases the underlying session
func (s *onnxSession) Destroy() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
}

// ONNXClassifier serves a binary classifier exported to ONNX.
// Outputs: "output" (class label, int64) and "probabilities"
// (float64, [n, numClasses]).
type ONNXClassifier struct {
	*onnxSession
	numClasses int
}

// LoadONNXClassifier loads a classifier model from file
func LoadONNXClassifier(modelPath string, dim, numClasses int) (*ONNXClassifier, error) {
	session, err := newSession(modelPath, dim, []string{"output", "probabilities"})
	if err != nil {
		return nil, err
	}
	return &ONNXClassifier{onnxSession: session, numClasses: numClasses}, nil
}

// PredictProba runs inference and returns the positive-class
// probability per row
func (m *ONNXClassifier) PredictProba(x [][]float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, nil
	}

	input, err := m.inputTensor(x)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	n := len(x)

	labels := make([]int64, n)
	labelTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(int64(n)), labels)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create label output tensor")
	}
	defer labelTensor.Destroy()

	probs := make([]float64, n*m.numClasses)
	probTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(int64(n), int64(m.numClasses)), probs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create probability output tensor")
	}
	defer probTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{input},
		[]onnxruntime.Value{labelTensor, probTensor},
	)
	if err != nil {
		return nil, errors.Wrap(err, "classifier inference failed")
	}

	// Positive class is the last probability column
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = probs[i*m.numClasses+m.numClasses-1]
	}
	return out, nil
}

// ONNXRegressor serves a regression model exported to ONNX.
// Output: "output" (float64, [n, 1]).
type ONNXRegressor struct {
	*onnxSession
}

// LoadONNXRegressor loads a regressor model from file
func LoadONNXRegressor(modelPath string, dim int) (*ONNXRegressor, error) {
	session, err := newSession(modelPath, dim, []string{"output"})
	if err != nil {
		return nil, err
	}
	return &ONNXRegressor{onnxSession: session}, nil
}

// Predict runs inference and returns the predicted value per row
func (m *ONNXRegressor) Predict(x [][]float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, nil
	}

	input, err := m.inputTensor(x)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	n := len(x)
	values := make([]float64, n)
	outTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(int64(n), 1), values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create output tensor")
	}
	defer outTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{input},
		[]onnxruntime.Value{outTensor},
	)
	if err != nil {
		return nil, errors.Wrap(err, "regressor inference failed")
	}

	out := make([]float64, n)
	copy(out, values)
	return out, nil
}

// ONNXClusterer serves a clustering model exported to ONNX.
// Output: "output" (cluster label, int64, [n]).
type ONNXClusterer struct {
	*onnxSession
	numClusters int
}

// LoadONNXClusterer loads a clustering model from file
func LoadONNXClusterer(modelPath string, dim, numClusters int) (*ONNXClusterer, error) {
	session, err := newSession(modelPath, dim, []string{"output"})
	if err != nil {
		return nil, err
	}
	return &ONNXClusterer{onnxSession: session, numClusters: numClusters}, nil
}

// PredictCluster runs inference and returns the cluster id per row
func (m *ONNXClusterer) PredictCluster(x [][]float64) ([]int, error) {
	if len(x) == 0 {
		return nil, nil
	}

	input, err := m.inputTensor(x)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	n := len(x)
	labels := make([]int64, n)
	labelTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(int64(n)), labels)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create label output tensor")
	}
	defer labelTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{input},
		[]onnxruntime.Value{labelTensor},
	)
	if err != nil {
		return nil, errors.Wrap(err, "clusterer inference failed")
	}

	out := make([]int, n)
	for i, label := range labels {
		cluster := int(label)
		if cluster < 0 || cluster >= m.numClusters {
			return nil, errors.Newf("invalid cluster id %d from model", cluster)
		}
		out[i] = cluster
	}
	return out, nil
}
