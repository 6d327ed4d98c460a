package ensemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v Vote) Predictor {
	return PredictorFunc(func(FeatureVector) (Vote, error) { return v, nil })
}

var testSchema = Schema{Name: "test", Features: []string{"a", "b"}}

func TestDecideMajority(t *testing.T) {
	tests := []struct {
		name  string
		votes [3]Vote
		want  Decision
	}{
		{"none positive", [3]Vote{0, 0, 0}, DecisionSafe},
		{"one positive", [3]Vote{0, 0, 1}, DecisionSafe},
		{"two positive", [3]Vote{1, 1, 0}, DecisionAlert},
		{"all positive", [3]Vote{1, 1, 1}, DecisionAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds := [3]Predictor{constant(tt.votes[0]), constant(tt.votes[1]), constant(tt.votes[2])}
			got, err := Decide(FeatureVector{1, 2}, preds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideIsOrderIndependent(t *testing.T) {
	// Every assignment of 3 binary votes, under every permutation of predictors.
	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for mask := 0; mask < 8; mask++ {
		votes := [3]Vote{Vote(mask & 1), Vote(mask >> 1 & 1), Vote(mask >> 2 & 1)}
		base, err := Decide(nil, [3]Predictor{constant(votes[0]), constant(votes[1]), constant(votes[2])})
		require.NoError(t, err)

		sum := int(votes[0] + votes[1] + votes[2])
		if sum >= 2 {
			assert.Equal(t, DecisionAlert, base, "votes %v", votes)
		} else {
			assert.Equal(t, DecisionSafe, base, "votes %v", votes)
		}

		for _, p := range perms {
			got, err := Decide(nil, [3]Predictor{constant(votes[p[0]]), constant(votes[p[1]]), constant(votes[p[2]])})
			require.NoError(t, err)
			assert.Equal(t, base, got, "votes %v perm %v", votes, p)
		}
	}
}

func TestDecideSameVectorForAllPredictors(t *testing.T) {
	var seen []FeatureVector
	record := PredictorFunc(func(v FeatureVector) (Vote, error) {
		seen = append(seen, v)
		v[0] = 99 // must not leak to the next predictor
		return VoteNegative, nil
	})

	vec := FeatureVector{1, 2}
	_, err := Decide(vec, [3]Predictor{record, record, record})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, FeatureVector{1, 2}, vec, "caller vector must be untouched")
}

func TestDecideErrors(t *testing.T) {
	t.Run("nil predictor", func(t *testing.T) {
		_, err := Decide(FeatureVector{1}, [3]Predictor{constant(1), nil, constant(0)})
		assert.ErrorIs(t, err, ErrPredictorUnavailable)
	})

	t.Run("predictor error propagates", func(t *testing.T) {
		bad := PredictorFunc(func(FeatureVector) (Vote, error) {
			return 0, ErrSchemaMismatch
		})
		_, err := Decide(FeatureVector{1}, [3]Predictor{constant(1), bad, constant(0)})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("vote outside 0/1", func(t *testing.T) {
		_, err := Decide(FeatureVector{1}, [3]Predictor{constant(1), constant(2), constant(0)})
		assert.ErrorIs(t, err, ErrInvalidVote)
	})
}

func TestMajority(t *testing.T) {
	got, err := Majority([]Vote{1, 0, 1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, DecisionAlert, got)

	got, err = Majority([]Vote{1, 0, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, DecisionSafe, got)

	_, err = Majority([]Vote{1, 0})
	assert.ErrorIs(t, err, ErrEvenVoters)

	_, err = Majority(nil)
	assert.ErrorIs(t, err, ErrEvenVoters)
}

func TestNewEnsemble(t *testing.T) {
	_, err := New(testSchema, constant(1), constant(0))
	assert.ErrorIs(t, err, ErrEvenVoters)

	_, err = New(testSchema)
	assert.ErrorIs(t, err, ErrEvenVoters)

	_, err = New(testSchema, constant(1), nil, constant(0))
	assert.ErrorIs(t, err, ErrPredictorUnavailable)

	e, err := New(testSchema, constant(1), constant(1), constant(0))
	require.NoError(t, err)
	assert.Equal(t, 3, e.Size())
	assert.Equal(t, 2, e.Schema().Dimension())
}

func TestEnsembleDecide(t *testing.T) {
	e, err := New(testSchema, constant(1), constant(0), constant(1))
	require.NoError(t, err)

	first, err := e.Decide(FeatureVector{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, DecisionAlert, first.Decision)
	assert.Equal(t, []Vote{1, 0, 1}, first.Votes)
	assert.Equal(t, 2, first.Positive)

	second, err := e.Decide(FeatureVector{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated decisions must be identical")
}

func TestEnsembleSchemaMismatch(t *testing.T) {
	e, err := New(testSchema, constant(1), constant(0), constant(1))
	require.NoError(t, err)

	_, err = e.Decide(FeatureVector{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}
