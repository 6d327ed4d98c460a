package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/raphaelgruber/carewatch/internal/alert"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// threshold votes positive when feature i exceeds limit.
func threshold(i int, limit float64) ensemble.Predictor {
	return ensemble.PredictorFunc(func(v ensemble.FeatureVector) (ensemble.Vote, error) {
		if v[i] > limit {
			return ensemble.VotePositive, nil
		}
		return ensemble.VoteNegative, nil
	})
}

func healthEnsemble(t *testing.T) *ensemble.Ensemble {
	t.Helper()
	e, err := ensemble.New(HealthSchema, threshold(0, 100), threshold(1, 140), threshold(4, 180))
	require.NoError(t, err)
	return e
}

func TestHealthReadingVector(t *testing.T) {
	v, err := HealthReading{HeartRate: 72, BPSystolic: 120, BPDiastolic: 80, Oxygen: 98, Glucose: 100}.Vector()
	require.NoError(t, err)
	assert.Equal(t, ensemble.FeatureVector{72, 120, 80, 98, 100}, v)
	assert.NoError(t, HealthSchema.Check(v))

	_, err = HealthReading{HeartRate: -1}.Vector()
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestHealthReadingUnmarshal(t *testing.T) {
	var r HealthReading
	require.NoError(t, json.Unmarshal([]byte(`{"heart_rate":72,"bp_systolic":120,"bp_diastolic":80,"oxygen":98,"glucose":0}`), &r))
	assert.Equal(t, HealthReading{HeartRate: 72, BPSystolic: 120, BPDiastolic: 80, Oxygen: 98}, r)

	tests := []struct {
		name    string
		payload string
		missing string
	}{
		{"partial vitals", `{"heart_rate":72,"oxygen":98}`, "bp_systolic, bp_diastolic, glucose"},
		{"null vital", `{"heart_rate":72,"bp_systolic":120,"bp_diastolic":80,"oxygen":null,"glucose":100}`, "oxygen"},
		{"empty object", `{}`, "heart_rate, bp_systolic, bp_diastolic, oxygen, glucose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r HealthReading
			err := json.Unmarshal([]byte(tt.payload), &r)
			assert.ErrorIs(t, err, ErrInvalidReading)
			assert.ErrorContains(t, err, "missing "+tt.missing)
		})
	}

	err := json.Unmarshal([]byte(`{"pulse":72}`), &r)
	assert.Error(t, err)
}

func TestSafetyReadingVector(t *testing.T) {
	tests := []struct {
		name string
		in   SafetyReading
		want ensemble.FeatureVector
	}{
		{"no movement fall", SafetyReading{Movement: "No Movement", Fall: true, Impact: "Medium"}, ensemble.FeatureVector{1, 0, 0, 1, 0, 1, 0}},
		{"walking", SafetyReading{Movement: "walking", Impact: "negligible"}, ensemble.FeatureVector{0, 0, 1, 0, 0, 0, 1}},
		{"sitting low", SafetyReading{Movement: " Sitting ", Impact: "Low"}, ensemble.FeatureVector{0, 1, 0, 0, 1, 0, 0}},
		{"none alias", SafetyReading{Movement: "none", Impact: "Low"}, ensemble.FeatureVector{1, 0, 0, 0, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Vector()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, SafetySchema.Check(got))
		})
	}

	_, err := SafetyReading{Movement: "Running", Impact: "Low"}.Vector()
	assert.ErrorIs(t, err, ErrInvalidReading)
	_, err = SafetyReading{Movement: "Walking", Impact: "Severe"}.Vector()
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestCheckSafe(t *testing.T) {
	called := false
	sink := alert.SinkFunc(func(context.Context, *models.Alert) error {
		called = true
		return nil
	})
	mc := metrics.NewCollector()
	m := New(models.MonitorHealth, healthEnsemble(t), sink, mc, nil)

	out, err := m.Check(context.Background(), "asha@example.com", "api",
		HealthReading{HeartRate: 72, BPSystolic: 120, BPDiastolic: 80, Oxygen: 98, Glucose: 100})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionSafe, out.Decision)
	assert.Equal(t, "Final Decision (Majority Vote): SAFE", out.Headline)
	assert.Empty(t, out.Spoken)
	assert.False(t, called)
	assert.Equal(t, metrics.DecisionCounts{Safe: 1}, mc.Snapshot().Decisions[models.MonitorHealth])
}

func TestCheckAlertNotifiesSink(t *testing.T) {
	var got *models.Alert
	sink := alert.SinkFunc(func(_ context.Context, a *models.Alert) error {
		got = a
		a.ID = surrealmodels.RecordID{Table: "alert", ID: "a1"}
		return nil
	})
	m := New(models.MonitorHealth, healthEnsemble(t), sink, nil, nil)

	out, err := m.Check(context.Background(), "asha@example.com", "mqtt",
		HealthReading{HeartRate: 130, BPSystolic: 160, BPDiastolic: 95, Oxygen: 91, Glucose: 120})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionAlert, out.Decision)
	assert.Equal(t, "Final Decision (Majority Vote): ALERT", out.Headline)
	assert.Equal(t, models.SpokenAlert, out.Spoken)
	assert.Equal(t, []ensemble.Vote{1, 1, 0}, out.Votes)
	assert.Equal(t, "a1", out.AlertID)

	require.NotNil(t, got)
	assert.Equal(t, "asha@example.com", got.UserEmail)
	assert.Equal(t, models.MonitorHealth, got.Monitor)
	assert.Equal(t, "mqtt", got.Source)
	assert.Equal(t, []int{1, 1, 0}, got.Votes)
	assert.Equal(t, []float64{130, 160, 95, 91, 120}, got.Features)
}

func TestCheckSinkFailureKeepsDecision(t *testing.T) {
	sink := alert.SinkFunc(func(context.Context, *models.Alert) error {
		return errors.New("db down")
	})
	m := New(models.MonitorHealth, healthEnsemble(t), sink, nil, nil)

	out, err := m.Check(context.Background(), "asha@example.com", "api",
		HealthReading{HeartRate: 130, BPSystolic: 160, Glucose: 200})
	require.NoError(t, err)
	assert.Equal(t, ensemble.DecisionAlert, out.Decision)
	assert.Empty(t, out.AlertID)
}

func TestCheckInvalidReading(t *testing.T) {
	m := New(models.MonitorSafety, healthEnsemble(t), nil, nil, nil)
	_, err := m.Check(context.Background(), "asha@example.com", "api", SafetyReading{Movement: "Flying"})
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestCheckSchemaMismatch(t *testing.T) {
	mc := metrics.NewCollector()
	m := New(models.MonitorHealth, healthEnsemble(t), nil, mc, nil)
	_, err := m.Check(context.Background(), "asha@example.com", "api", SafetyReading{Movement: "Walking", Impact: "Low"})
	assert.ErrorIs(t, err, ensemble.ErrSchemaMismatch)
	assert.Equal(t, int64(1), mc.Snapshot().Operations[metrics.OpDecideHealth].Errors)
}
