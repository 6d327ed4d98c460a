package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/carewatch/internal/llm"
	"github.com/raphaelgruber/carewatch/internal/metrics"
)

// Writer drafts notification text. *llm.Model implements it.
type Writer interface {
	ComposeAlert(ctx context.Context, facts llm.AlertFacts) (string, error)
}

// Composer produces caretaker notification text, using a Writer when one
// is configured and a fixed template otherwise or on failure.
type Composer struct {
	writer  Writer
	timeout time.Duration
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewComposer creates a composer. writer may be nil.
func NewComposer(writer Writer, mc *metrics.Collector, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		writer:  writer,
		timeout: 15 * time.Second,
		metrics: mc,
		logger:  logger,
	}
}

// Compose returns notification text for facts. It never fails.
func (c *Composer) Compose(ctx context.Context, facts llm.AlertFacts) string {
	if c.writer == nil {
		return Template(facts)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.writer.ComposeAlert(ctx, facts)
	if err != nil || text == "" {
		c.metrics.RecordError(metrics.OpAlertCompose, time.Since(start))
		c.logger.Warn("notification writer failed, using template", "monitor", facts.Monitor, "error", err)
		return Template(facts)
	}
	c.metrics.RecordTiming(metrics.OpAlertCompose, time.Since(start))
	return text
}

// Template is the fixed notification text.
func Template(facts llm.AlertFacts) string {
	name := facts.UserName
	if name == "" {
		name = "Your contact"
	}
	msg := fmt.Sprintf("%s's %s monitor raised an alert.", name, facts.Monitor)
	if facts.Readings != "" {
		msg += " Readings: " + facts.Readings + "."
	}
	return msg + " Please check on them as soon as possible."
}

// FormatReadings renders feature values as "name=value" pairs.
func FormatReadings(names []string, values []float64) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		name := "f" + strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		parts = append(parts, name+"="+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
