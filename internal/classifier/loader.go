package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"gopkg.in/yaml.v3"
)

// Model kinds accepted in model files.
const (
	KindKNN      = "knn"
	KindLogistic = "logistic"
	KindSVM      = "svm"
)

// SetFiles are the file names LoadSet expects in a model directory,
// in voting order.
var SetFiles = []string{"knn.yaml", "logistic.yaml", "svm.yaml"}

// ErrInvalidModel indicates a model file with missing or inconsistent parameters.
var ErrInvalidModel = errors.New("invalid model")

// modelFile is the on-disk representation of one trained model.
type modelFile struct {
	Kind      string    `yaml:"kind"`
	Schema    string    `yaml:"schema"`
	Features  []string  `yaml:"features"`
	Dimension int       `yaml:"dimension"`
	Scaler    *Scaler   `yaml:"scaler"`
	KNN       *KNN      `yaml:"knn"`
	Logistic  *Logistic `yaml:"logistic"`
	SVM       *SVM      `yaml:"svm"`
}

// Parse decodes a model file and returns its predictor along with the
// feature names it was trained on.
func Parse(data []byte) (ensemble.Predictor, []string, error) {
	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}

	dim := mf.Dimension
	if dim == 0 {
		dim = len(mf.Features)
	}
	if dim <= 0 {
		return nil, nil, fmt.Errorf("%w: dimension not set", ErrInvalidModel)
	}
	if len(mf.Features) > 0 && len(mf.Features) != dim {
		return nil, nil, fmt.Errorf("%w: %d feature names for dimension %d", ErrInvalidModel, len(mf.Features), dim)
	}
	if mf.Scaler != nil && (len(mf.Scaler.Mean) != dim || len(mf.Scaler.Scale) != dim) {
		return nil, nil, fmt.Errorf("%w: scaler does not match dimension %d", ErrInvalidModel, dim)
	}

	var (
		p   ensemble.Predictor
		err error
	)
	switch mf.Kind {
	case KindKNN:
		p, err = buildKNN(mf.KNN, dim, mf.Scaler)
	case KindLogistic:
		p, err = buildLogistic(mf.Logistic, dim, mf.Scaler)
	case KindSVM:
		p, err = buildSVM(mf.SVM, dim, mf.Scaler)
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidModel, mf.Kind)
	}
	if err != nil {
		return nil, nil, err
	}
	return p, mf.Features, nil
}

func buildKNN(m *KNN, dim int, s *Scaler) (*KNN, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: knn section missing", ErrInvalidModel)
	}
	if m.K <= 0 {
		return nil, fmt.Errorf("%w: knn k must be positive", ErrInvalidModel)
	}
	if len(m.Points) == 0 || len(m.Points) != len(m.Labels) {
		return nil, fmt.Errorf("%w: knn has %d points and %d labels", ErrInvalidModel, len(m.Points), len(m.Labels))
	}
	for i, p := range m.Points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: knn point %d has %d features", ErrInvalidModel, i, len(p))
		}
		if m.Labels[i] != 0 && m.Labels[i] != 1 {
			return nil, fmt.Errorf("%w: knn label %d is %d", ErrInvalidModel, i, m.Labels[i])
		}
	}
	m.dim = dim
	m.scaler = s
	return m, nil
}

func buildLogistic(m *Logistic, dim int, s *Scaler) (*Logistic, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: logistic section missing", ErrInvalidModel)
	}
	if len(m.Weights) != dim {
		return nil, fmt.Errorf("%w: logistic has %d weights for dimension %d", ErrInvalidModel, len(m.Weights), dim)
	}
	m.threshold = DefaultThreshold
	if m.Threshold != nil {
		if *m.Threshold < 0 || *m.Threshold > 1 {
			return nil, fmt.Errorf("%w: logistic threshold %v outside [0, 1]", ErrInvalidModel, *m.Threshold)
		}
		m.threshold = *m.Threshold
	}
	m.scaler = s
	return m, nil
}

func buildSVM(m *SVM, dim int, s *Scaler) (*SVM, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: svm section missing", ErrInvalidModel)
	}
	if m.Kernel == "" {
		m.Kernel = KernelLinear
	}
	switch m.Kernel {
	case KernelLinear:
		if len(m.Weights) != dim {
			return nil, fmt.Errorf("%w: svm has %d weights for dimension %d", ErrInvalidModel, len(m.Weights), dim)
		}
	case KernelRBF:
		if len(m.SupportVectors) == 0 || len(m.SupportVectors) != len(m.DualCoef) {
			return nil, fmt.Errorf("%w: svm has %d support vectors and %d coefficients",
				ErrInvalidModel, len(m.SupportVectors), len(m.DualCoef))
		}
		for i, sv := range m.SupportVectors {
			if len(sv) != dim {
				return nil, fmt.Errorf("%w: support vector %d has %d features", ErrInvalidModel, i, len(sv))
			}
		}
		if m.Gamma <= 0 {
			return nil, fmt.Errorf("%w: svm gamma must be positive", ErrInvalidModel)
		}
	default:
		return nil, fmt.Errorf("%w: unknown svm kernel %q", ErrInvalidModel, m.Kernel)
	}
	m.dim = dim
	m.scaler = s
	return m, nil
}

// Load reads one model file and checks it against the expected schema.
// Any failure is reported as ensemble.ErrPredictorUnavailable.
func Load(path string, schema ensemble.Schema) (ensemble.Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ensemble.ErrPredictorUnavailable, err)
	}

	p, features, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ensemble.ErrPredictorUnavailable, filepath.Base(path), err)
	}
	if len(features) > 0 && !slices.Equal(features, schema.Features) {
		return nil, fmt.Errorf("%w: %s: trained on %v, %s schema is %v: %w",
			ensemble.ErrPredictorUnavailable, filepath.Base(path), features, schema.Name, schema.Features, ensemble.ErrSchemaMismatch)
	}
	if err := probe(p, schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ensemble.ErrPredictorUnavailable, filepath.Base(path), err)
	}
	return p, nil
}

// probe runs the model once on a zero vector so a dimension mismatch
// surfaces at startup rather than on the first request.
func probe(p ensemble.Predictor, schema ensemble.Schema) error {
	_, err := p.Predict(make(ensemble.FeatureVector, schema.Dimension()))
	return err
}

// LoadSet loads the knn, logistic and svm models from dir into an ensemble.
func LoadSet(dir string, schema ensemble.Schema) (*ensemble.Ensemble, error) {
	predictors := make([]ensemble.Predictor, 0, len(SetFiles))
	for _, name := range SetFiles {
		p, err := Load(filepath.Join(dir, name), schema)
		if err != nil {
			return nil, fmt.Errorf("load %s models: %w", schema.Name, err)
		}
		predictors = append(predictors, p)
	}
	return ensemble.New(schema, predictors...)
}
