// Package alert delivers monitor alerts to caretakers and live subscribers.
package alert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/raphaelgruber/carewatch/internal/models"
)

// Sink receives alerts raised by a monitor. Sinks may fill in fields of a
// (ID, Notification, NotifiedTo) for the sinks after them.
type Sink interface {
	Notify(ctx context.Context, a *models.Alert) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a *models.Alert) error

// Notify implements Sink.
func (f SinkFunc) Notify(ctx context.Context, a *models.Alert) error {
	return f(ctx, a)
}

// Fanout delivers to every sink in order. A failing sink does not stop
// the ones after it; all errors are joined.
type Fanout []Sink

// Notify implements Sink.
func (f Fanout) Notify(ctx context.Context, a *models.Alert) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each alert to the logger.
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(_ context.Context, a *models.Alert) error {
		logger.Warn("alert raised",
			"user", a.UserEmail,
			"monitor", a.Monitor,
			"votes", a.Votes,
			"notified", len(a.NotifiedTo),
		)
		return nil
	})
}
