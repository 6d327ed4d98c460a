package monitor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/raphaelgruber/carewatch/internal/ensemble"
)

// ErrInvalidReading indicates input that cannot be encoded into a feature vector.
var ErrInvalidReading = errors.New("invalid reading")

// HealthSchema is the feature order the health models were trained on.
var HealthSchema = ensemble.Schema{
	Name:     "health",
	Features: []string{"heart_rate", "bp_systolic", "bp_diastolic", "oxygen", "glucose"},
}

// SafetySchema is the one-hot feature order the safety models were trained on.
var SafetySchema = ensemble.Schema{
	Name: "safety",
	Features: []string{
		"movement_none", "movement_sitting", "movement_walking",
		"fall_detected",
		"impact_low", "impact_medium", "impact_negligible",
	},
}

// Reading is monitor input that encodes itself for the ensemble.
type Reading interface {
	Vector() (ensemble.FeatureVector, error)
}

// HealthReading holds one set of vital signs.
type HealthReading struct {
	HeartRate   float64 `json:"heart_rate"`   // bpm
	BPSystolic  float64 `json:"bp_systolic"`  // mmHg
	BPDiastolic float64 `json:"bp_diastolic"` // mmHg
	Oxygen      float64 `json:"oxygen"`       // SpO2 %
	Glucose     float64 `json:"glucose"`      // mg/dL
}

// UnmarshalJSON requires all five vitals and rejects unknown fields.
// An explicit 0 is kept and range-checked by Vector.
func (r *HealthReading) UnmarshalJSON(data []byte) error {
	var raw struct {
		HeartRate   *float64 `json:"heart_rate"`
		BPSystolic  *float64 `json:"bp_systolic"`
		BPDiastolic *float64 `json:"bp_diastolic"`
		Oxygen      *float64 `json:"oxygen"`
		Glucose     *float64 `json:"glucose"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	fields := []*float64{raw.HeartRate, raw.BPSystolic, raw.BPDiastolic, raw.Oxygen, raw.Glucose}
	var missing []string
	for i, f := range fields {
		if f == nil {
			missing = append(missing, HealthSchema.Features[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidReading, strings.Join(missing, ", "))
	}

	*r = HealthReading{
		HeartRate:   *raw.HeartRate,
		BPSystolic:  *raw.BPSystolic,
		BPDiastolic: *raw.BPDiastolic,
		Oxygen:      *raw.Oxygen,
		Glucose:     *raw.Glucose,
	}
	return nil
}

// Vector implements Reading.
func (r HealthReading) Vector() (ensemble.FeatureVector, error) {
	v := ensemble.FeatureVector{r.HeartRate, r.BPSystolic, r.BPDiastolic, r.Oxygen, r.Glucose}
	for i, x := range v {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidReading, HealthSchema.Features[i])
		}
	}
	return v, nil
}

// Movement categories.
const (
	MovementNone    = "No Movement"
	MovementSitting = "Sitting"
	MovementWalking = "Walking"
)

// Impact levels.
const (
	ImpactNegligible = "Negligible"
	ImpactLow        = "Low"
	ImpactMedium     = "Medium"
)

// SafetyReading holds the fall-detection signals.
type SafetyReading struct {
	Movement string `json:"movement"`
	Fall     bool   `json:"fall"`
	Impact   string `json:"impact"`
}

// Vector implements Reading.
func (r SafetyReading) Vector() (ensemble.FeatureVector, error) {
	movement, ok := matchLabel(r.Movement, MovementNone, MovementSitting, MovementWalking)
	if !ok {
		return nil, fmt.Errorf("%w: movement %q (want %s, %s or %s)",
			ErrInvalidReading, r.Movement, MovementNone, MovementSitting, MovementWalking)
	}
	impact, ok := matchLabel(r.Impact, ImpactNegligible, ImpactLow, ImpactMedium)
	if !ok {
		return nil, fmt.Errorf("%w: impact %q (want %s, %s or %s)",
			ErrInvalidReading, r.Impact, ImpactNegligible, ImpactLow, ImpactMedium)
	}

	return ensemble.FeatureVector{
		indicator(movement == MovementNone),
		indicator(movement == MovementSitting),
		indicator(movement == MovementWalking),
		indicator(r.Fall),
		indicator(impact == ImpactLow),
		indicator(impact == ImpactMedium),
		indicator(impact == ImpactNegligible),
	}, nil
}

func matchLabel(s string, labels ...string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, l := range labels {
		if strings.EqualFold(s, l) {
			return l, true
		}
	}
	if strings.EqualFold(s, "none") && labels[0] == MovementNone {
		return MovementNone, true
	}
	return "", false
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
