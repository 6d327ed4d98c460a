// Package ensemble implements the majority-vote decision rule shared by the
// health and safety monitors.
package ensemble

import (
	"errors"
	"fmt"
)

// Sentinel errors for ensemble evaluation.
var (
	// ErrSchemaMismatch indicates a feature vector whose dimension does not match
	// the schema a predictor was trained on. It is a caller bug and is never retried.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrPredictorUnavailable indicates a model handle that could not be loaded.
	// Raised when an Ensemble is built, never per decision.
	ErrPredictorUnavailable = errors.New("predictor unavailable")

	// ErrInvalidVote indicates a predictor returned a label outside {0, 1}.
	ErrInvalidVote = errors.New("invalid vote")

	// ErrEvenVoters indicates an ensemble without an odd number of voters.
	// Majority over an even count can tie and no tie-break policy is defined.
	ErrEvenVoters = errors.New("ensemble needs an odd number of voters")
)

// Decision is the final outcome of a majority vote.
type Decision string

const (
	DecisionAlert Decision = "ALERT"
	DecisionSafe  Decision = "SAFE"
)

// IsAlert reports whether the decision requires notifying caretakers.
func (d Decision) IsAlert() bool {
	return d == DecisionAlert
}

// Vote is one binary classifier output.
type Vote int

const (
	VoteNegative Vote = 0
	VotePositive Vote = 1
)

// Valid reports whether v is 0 or 1.
func (v Vote) Valid() bool {
	return v == VoteNegative || v == VotePositive
}

// FeatureVector is an ordered sequence of model inputs.
type FeatureVector []float64

// Predictor is any binary classifier over a feature vector.
type Predictor interface {
	Predict(FeatureVector) (Vote, error)
}

// PredictorFunc adapts a plain function to the Predictor interface.
type PredictorFunc func(FeatureVector) (Vote, error)

// Predict calls f(v).
func (f PredictorFunc) Predict(v FeatureVector) (Vote, error) {
	return f(v)
}

// Schema names the ordered features a vector must carry.
type Schema struct {
	Name     string
	Features []string
}

// Dimension returns the number of features.
func (s Schema) Dimension() int {
	return len(s.Features)
}

// Check returns ErrSchemaMismatch if v does not have the schema's dimension.
func (s Schema) Check(v FeatureVector) error {
	if len(v) != s.Dimension() {
		return fmt.Errorf("%w: %s expects %d features, got %d", ErrSchemaMismatch, s.Name, s.Dimension(), len(v))
	}
	return nil
}

// Result carries a decision together with the votes it was computed from.
type Result struct {
	Decision Decision `json:"decision"`
	Votes    []Vote   `json:"votes"`
	Positive int      `json:"positive"`
}

// Majority applies the majority rule to already collected votes.
// More than half of the votes positive yields ALERT.
func Majority(votes []Vote) (Decision, error) {
	if len(votes) == 0 || len(votes)%2 == 0 {
		return "", fmt.Errorf("%w: got %d", ErrEvenVoters, len(votes))
	}
	positive, err := countPositive(votes)
	if err != nil {
		return "", err
	}
	return decide(positive, len(votes)), nil
}

// Decide runs the three predictors on the same vector and returns the
// majority decision: two or more positive votes is ALERT.
func Decide(vector FeatureVector, predictors [3]Predictor) (Decision, error) {
	votes := make([]Vote, 0, len(predictors))
	for i, p := range predictors {
		if p == nil {
			return "", fmt.Errorf("%w: predictor %d is nil", ErrPredictorUnavailable, i)
		}
		v, err := predict(p, vector)
		if err != nil {
			return "", fmt.Errorf("predictor %d: %w", i, err)
		}
		votes = append(votes, v)
	}
	return Majority(votes)
}

// Ensemble is an immutable set of predictors bound to one schema.
// It is built once at startup and shared by concurrent requests.
type Ensemble struct {
	schema     Schema
	predictors []Predictor
}

// New builds an ensemble. All predictors must be non-nil and their count odd.
func New(schema Schema, predictors ...Predictor) (*Ensemble, error) {
	if len(predictors) == 0 || len(predictors)%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrEvenVoters, len(predictors))
	}
	for i, p := range predictors {
		if p == nil {
			return nil, fmt.Errorf("%w: %s predictor %d is nil", ErrPredictorUnavailable, schema.Name, i)
		}
	}
	return &Ensemble{
		schema:     schema,
		predictors: append([]Predictor(nil), predictors...),
	}, nil
}

// Schema returns the schema vectors must conform to.
func (e *Ensemble) Schema() Schema {
	return e.schema
}

// Size returns the number of voters.
func (e *Ensemble) Size() int {
	return len(e.predictors)
}

// Decide evaluates every predictor on vector and applies the majority rule.
func (e *Ensemble) Decide(vector FeatureVector) (Result, error) {
	if err := e.schema.Check(vector); err != nil {
		return Result{}, err
	}

	votes := make([]Vote, len(e.predictors))
	for i, p := range e.predictors {
		v, err := predict(p, vector)
		if err != nil {
			return Result{}, fmt.Errorf("%s predictor %d: %w", e.schema.Name, i, err)
		}
		votes[i] = v
	}

	positive, err := countPositive(votes)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Decision: decide(positive, len(votes)),
		Votes:    votes,
		Positive: positive,
	}, nil
}

// predict hands p a private copy so no predictor can alter what the others see.
func predict(p Predictor, vector FeatureVector) (Vote, error) {
	v, err := p.Predict(append(FeatureVector(nil), vector...))
	if err != nil {
		return 0, err
	}
	if !v.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidVote, v)
	}
	return v, nil
}

func countPositive(votes []Vote) (int, error) {
	positive := 0
	for _, v := range votes {
		if !v.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidVote, v)
		}
		positive += int(v)
	}
	return positive, nil
}

func decide(positive, total int) Decision {
	if positive > total/2 {
		return DecisionAlert
	}
	return DecisionSafe
}
