package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var healthSchema = ensemble.Schema{
	Name:     "health",
	Features: []string{"heart_rate", "bp_systolic", "bp_diastolic", "oxygen", "glucose"},
}

var safetySchema = ensemble.Schema{
	Name: "safety",
	Features: []string{
		"movement_none", "movement_sitting", "movement_walking", "fall_detected",
		"impact_low", "impact_medium", "impact_negligible",
	},
}

func mustParse(t *testing.T, src string) ensemble.Predictor {
	t.Helper()
	p, _, err := Parse([]byte(src))
	require.NoError(t, err)
	return p
}

func TestLogistic(t *testing.T) {
	p := mustParse(t, `
kind: logistic
dimension: 2
logistic:
  weights: [1, 1]
  intercept: 0
`)

	v, err := p.Predict(ensemble.FeatureVector{1, 1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, v)

	v, err = p.Predict(ensemble.FeatureVector{-1, -1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VoteNegative, v)

	_, err = p.Predict(ensemble.FeatureVector{1})
	assert.ErrorIs(t, err, ensemble.ErrSchemaMismatch)
}

func TestLogisticThreshold(t *testing.T) {
	// sigmoid(-5) is about 0.0067: negative at the default cut-off.
	src := `
kind: logistic
dimension: 1
logistic:
  weights: [1]
  intercept: -5
`
	v, err := mustParse(t, src).Predict(ensemble.FeatureVector{0})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VoteNegative, v)

	v, err = mustParse(t, src+"  threshold: 0\n").Predict(ensemble.FeatureVector{0})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, v, "explicit zero threshold is kept")

	v, err = mustParse(t, src+"  threshold: 0.005\n").Predict(ensemble.FeatureVector{0})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, v)
}

func TestKNN(t *testing.T) {
	p := mustParse(t, `
kind: knn
dimension: 2
knn:
  k: 3
  points: [[0, 0], [0, 1], [5, 5], [5, 6], [6, 5]]
  labels: [0, 0, 1, 1, 1]
`)

	tests := []struct {
		name string
		in   ensemble.FeatureVector
		want ensemble.Vote
	}{
		{"near negatives", ensemble.FeatureVector{0.2, 0.2}, ensemble.VoteNegative},
		{"near positives", ensemble.FeatureVector{5, 5}, ensemble.VotePositive},
		{"far side", ensemble.FeatureVector{10, 10}, ensemble.VotePositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Predict(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.Predict(ensemble.FeatureVector{1, 2, 3})
	assert.ErrorIs(t, err, ensemble.ErrSchemaMismatch)
}

func TestKNNTieGoesToCloserClass(t *testing.T) {
	p := mustParse(t, `
kind: knn
dimension: 1
knn:
  k: 2
  points: [[0], [3]]
  labels: [1, 0]
`)
	got, err := p.Predict(ensemble.FeatureVector{1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, got)

	got, err = p.Predict(ensemble.FeatureVector{2})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VoteNegative, got)
}

func TestSVMLinear(t *testing.T) {
	p := mustParse(t, `
kind: svm
dimension: 2
svm:
  weights: [1, -1]
  intercept: 0
`)
	got, err := p.Predict(ensemble.FeatureVector{2, 1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, got)

	got, err = p.Predict(ensemble.FeatureVector{1, 1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VoteNegative, got, "zero margin is negative")
}

func TestSVMRBF(t *testing.T) {
	p := mustParse(t, `
kind: svm
dimension: 2
svm:
  kernel: rbf
  support_vectors: [[0, 0]]
  dual_coef: [1]
  intercept: -0.5
  gamma: 1
`)
	got, err := p.Predict(ensemble.FeatureVector{0, 0})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VotePositive, got)

	got, err = p.Predict(ensemble.FeatureVector{3, 3})
	require.NoError(t, err)
	assert.Equal(t, ensemble.VoteNegative, got)
}

func TestScaler(t *testing.T) {
	s := &Scaler{Mean: []float64{1, 1}, Scale: []float64{2, 0}}
	assert.Equal(t, ensemble.FeatureVector{1, 2}, s.Apply(ensemble.FeatureVector{3, 3}))

	var none *Scaler
	assert.Equal(t, ensemble.FeatureVector{3, 3}, none.Apply(ensemble.FeatureVector{3, 3}))
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown kind", "kind: forest\ndimension: 2\n"},
		{"no dimension", "kind: logistic\nlogistic: {weights: []}\n"},
		{"knn label mismatch", "kind: knn\ndimension: 1\nknn: {k: 1, points: [[0], [1]], labels: [0]}\n"},
		{"knn non-binary label", "kind: knn\ndimension: 1\nknn: {k: 1, points: [[0]], labels: [2]}\n"},
		{"logistic weights", "kind: logistic\ndimension: 3\nlogistic: {weights: [1, 2]}\n"},
		{"logistic threshold", "kind: logistic\ndimension: 1\nlogistic: {weights: [1], threshold: 1.5}\n"},
		{"rbf without gamma", "kind: svm\ndimension: 1\nsvm: {kernel: rbf, support_vectors: [[0]], dual_coef: [1]}\n"},
		{"scaler size", "kind: logistic\ndimension: 1\nscaler: {mean: [0, 0], scale: [1, 1]}\nlogistic: {weights: [1]}\n"},
		{"missing section", "kind: svm\ndimension: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.src))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestLoadUnavailable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), healthSchema)
	assert.ErrorIs(t, err, ensemble.ErrPredictorUnavailable)

	path := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: logistic
features: [a, b]
logistic: {weights: [1, 1]}
`), 0o644))
	_, err = Load(path, healthSchema)
	assert.ErrorIs(t, err, ensemble.ErrPredictorUnavailable)
	assert.ErrorIs(t, err, ensemble.ErrSchemaMismatch)
}

func TestLoadSetHealth(t *testing.T) {
	e, err := LoadSet(filepath.Join("..", "..", "models", "health"), healthSchema)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Size())

	normal, err := e.Decide(ensemble.FeatureVector{72, 118, 78, 98, 100})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionSafe, normal.Decision)

	critical, err := e.Decide(ensemble.FeatureVector{140, 170, 105, 88, 250})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionAlert, critical.Decision)
}

func TestLoadSetSafety(t *testing.T) {
	e, err := LoadSet(filepath.Join("..", "..", "models", "safety"), safetySchema)
	require.NoError(t, err)

	fallen, err := e.Decide(ensemble.FeatureVector{1, 0, 0, 1, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionAlert, fallen.Decision)

	walking, err := e.Decide(ensemble.FeatureVector{0, 0, 1, 0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionSafe, walking.Decision)
}

func TestLoadSetMissingModel(t *testing.T) {
	_, err := LoadSet(t.TempDir(), healthSchema)
	assert.ErrorIs(t, err, ensemble.ErrPredictorUnavailable)
}
