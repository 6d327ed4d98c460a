// Package monitor runs health and safety readings through their ensembles
// and hands alerts to the notification pipeline.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/carewatch/internal/alert"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// Outcome is what a caller shows after a check.
type Outcome struct {
	Monitor  string            `json:"monitor"`
	Decision ensemble.Decision `json:"decision"`
	Votes    []ensemble.Vote   `json:"votes"`
	Headline string            `json:"headline"`
	Spoken   string            `json:"spoken,omitempty"`
	AlertID  string            `json:"alert_id,omitempty"`
}

// Monitor binds one ensemble to the alert sink.
type Monitor struct {
	kind     string
	ensemble *ensemble.Ensemble
	sink     alert.Sink
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates a monitor. sink and mc may be nil.
func New(kind string, e *ensemble.Ensemble, sink alert.Sink, mc *metrics.Collector, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		kind:     kind,
		ensemble: e,
		sink:     sink,
		metrics:  mc,
		logger:   logger.With("monitor", kind),
	}
}

// Kind returns "health" or "safety".
func (m *Monitor) Kind() string {
	return m.kind
}

// Schema returns the feature schema readings are encoded into.
func (m *Monitor) Schema() ensemble.Schema {
	return m.ensemble.Schema()
}

// Check encodes the reading, decides, and on ALERT notifies the sink.
// A failing sink is logged; it never changes the decision.
func (m *Monitor) Check(ctx context.Context, userEmail, source string, r Reading) (Outcome, error) {
	vector, err := r.Vector()
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	result, err := m.ensemble.Decide(vector)
	if err != nil {
		m.metrics.RecordError(m.op(), time.Since(start))
		return Outcome{}, fmt.Errorf("decide: %w", err)
	}
	m.metrics.RecordTiming(m.op(), time.Since(start))
	m.metrics.RecordDecision(m.kind, result.Decision.IsAlert())

	out := Outcome{
		Monitor:  m.kind,
		Decision: result.Decision,
		Votes:    result.Votes,
		Headline: "Final Decision (Majority Vote): " + string(result.Decision),
	}

	m.logger.Info("decision",
		"user", userEmail,
		"decision", result.Decision,
		"positive", result.Positive,
		"source", source,
	)

	if !result.Decision.IsAlert() {
		return out, nil
	}

	out.Spoken = models.SpokenAlert
	a := &models.Alert{
		UserEmail: userEmail,
		Monitor:   m.kind,
		Decision:  string(result.Decision),
		Votes:     votesToInts(result.Votes),
		Features:  vector,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if m.sink != nil {
		if err := m.sink.Notify(ctx, a); err != nil {
			m.logger.Error("alert delivery failed", "user", userEmail, "error", err)
		}
	}
	if id, err := models.RecordIDString(a.ID); err == nil {
		out.AlertID = id
	}
	return out, nil
}

func (m *Monitor) op() string {
	if m.kind == models.MonitorSafety {
		return metrics.OpDecideSafety
	}
	return metrics.OpDecideHealth
}

func votesToInts(votes []ensemble.Vote) []int {
	out := make([]int, len(votes))
	for i, v := range votes {
		out[i] = int(v)
	}
	return out
}
