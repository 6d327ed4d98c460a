// Package classifier provides the concrete binary classifiers (k-nearest
// neighbors, logistic regression, support-vector machine) used by the
// monitors, and loads their trained parameters from model files.
package classifier

import (
	"fmt"
	"math"
	"sort"

	"github.com/raphaelgruber/carewatch/internal/ensemble"
)

// Scaler standardizes features the way the training pipeline did:
// (x - mean) / scale. A zero scale leaves the centered value unchanged.
type Scaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Apply returns a scaled copy of v.
func (s *Scaler) Apply(v ensemble.FeatureVector) ensemble.FeatureVector {
	if s == nil || len(s.Mean) == 0 {
		return v
	}
	out := make(ensemble.FeatureVector, len(v))
	for i, x := range v {
		out[i] = x - s.Mean[i]
		if s.Scale[i] != 0 {
			out[i] /= s.Scale[i]
		}
	}
	return out
}

func checkDimension(kind string, want int, v ensemble.FeatureVector) error {
	if len(v) != want {
		return fmt.Errorf("%w: %s model expects %d features, got %d", ensemble.ErrSchemaMismatch, kind, want, len(v))
	}
	return nil
}

// KNN predicts the majority label among the K nearest training points.
type KNN struct {
	K      int         `yaml:"k"`
	Points [][]float64 `yaml:"points"`
	Labels []int       `yaml:"labels"`

	dim    int
	scaler *Scaler
}

type neighbor struct {
	dist  float64
	label int
}

// Predict implements ensemble.Predictor.
func (m *KNN) Predict(v ensemble.FeatureVector) (ensemble.Vote, error) {
	if err := checkDimension("knn", m.dim, v); err != nil {
		return 0, err
	}
	x := m.scaler.Apply(v)

	neighbors := make([]neighbor, len(m.Points))
	for i, p := range m.Points {
		neighbors[i] = neighbor{dist: euclidean(x, p), label: m.Labels[i]}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].dist < neighbors[j].dist
	})

	k := min(m.K, len(neighbors))
	var count [2]int
	var distSum [2]float64
	for _, n := range neighbors[:k] {
		count[n.label]++
		distSum[n.label] += n.dist
	}

	// Ties go to the closer class, then to the negative label.
	if count[1] > count[0] || (count[1] == count[0] && distSum[1] < distSum[0]) {
		return ensemble.VotePositive, nil
	}
	return ensemble.VoteNegative, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// DefaultThreshold is the positive-class probability cut-off used when a
// logistic model file does not set one.
const DefaultThreshold = 0.5

// Logistic is a logistic regression model.
type Logistic struct {
	Weights   []float64 `yaml:"weights"`
	Intercept float64   `yaml:"intercept"`
	Threshold *float64  `yaml:"threshold"`

	threshold float64
	scaler    *Scaler
}

// Probability returns the positive-class probability for v.
func (m *Logistic) Probability(v ensemble.FeatureVector) (float64, error) {
	if err := checkDimension("logistic", len(m.Weights), v); err != nil {
		return 0, err
	}
	z := dot(m.Weights, m.scaler.Apply(v)) + m.Intercept
	return 1 / (1 + math.Exp(-z)), nil
}

// Predict implements ensemble.Predictor.
func (m *Logistic) Predict(v ensemble.FeatureVector) (ensemble.Vote, error) {
	p, err := m.Probability(v)
	if err != nil {
		return 0, err
	}
	if p >= m.threshold {
		return ensemble.VotePositive, nil
	}
	return ensemble.VoteNegative, nil
}

// Kernel names supported by SVM.
const (
	KernelLinear = "linear"
	KernelRBF    = "rbf"
)

// SVM is a binary support-vector classifier.
// Linear models use Weights; RBF models use SupportVectors with DualCoef.
type SVM struct {
	Kernel         string      `yaml:"kernel"`
	Weights        []float64   `yaml:"weights"`
	Intercept      float64     `yaml:"intercept"`
	SupportVectors [][]float64 `yaml:"support_vectors"`
	DualCoef       []float64   `yaml:"dual_coef"`
	Gamma          float64     `yaml:"gamma"`

	dim    int
	scaler *Scaler
}

// Margin returns the signed decision function value for v.
func (m *SVM) Margin(v ensemble.FeatureVector) (float64, error) {
	if err := checkDimension("svm", m.dim, v); err != nil {
		return 0, err
	}
	x := m.scaler.Apply(v)

	if m.Kernel == KernelRBF {
		f := m.Intercept
		for i, sv := range m.SupportVectors {
			d := euclidean(x, sv)
			f += m.DualCoef[i] * math.Exp(-m.Gamma*d*d)
		}
		return f, nil
	}
	return dot(m.Weights, x) + m.Intercept, nil
}

// Predict implements ensemble.Predictor.
func (m *SVM) Predict(v ensemble.FeatureVector) (ensemble.Vote, error) {
	f, err := m.Margin(v)
	if err != nil {
		return 0, err
	}
	if f > 0 {
		return ensemble.VotePositive, nil
	}
	return ensemble.VoteNegative, nil
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}
