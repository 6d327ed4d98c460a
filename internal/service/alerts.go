package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/carewatch/internal/alert"
	"github.com/raphaelgruber/carewatch/internal/llm"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// AlertService records monitor alerts with the notification sent to the
// user's caretakers. It is the first sink in the alert pipeline.
type AlertService struct {
	alerts     AlertStore
	users      UserStore
	caretakers CaretakerStore
	composer   *alert.Composer
	features   map[string][]string
}

// NewAlertService creates an alert service. features maps a monitor kind
// to its feature names for the notification text.
func NewAlertService(alerts AlertStore, users UserStore, caretakers CaretakerStore, composer *alert.Composer, features map[string][]string) *AlertService {
	if composer == nil {
		composer = alert.NewComposer(nil, nil, nil)
	}
	return &AlertService{
		alerts:     alerts,
		users:      users,
		caretakers: caretakers,
		composer:   composer,
		features:   features,
	}
}

// Notify implements alert.Sink. It fills in the notification text and the
// caretakers notified, then stores a and sets its ID. Alerts for
// unregistered users are refused.
func (s *AlertService) Notify(ctx context.Context, a *models.Alert) error {
	facts := llm.AlertFacts{
		Monitor:  a.Monitor,
		Readings: alert.FormatReadings(s.features[a.Monitor], a.Features),
	}

	u, err := s.users.GetUserByEmail(ctx, a.UserEmail)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("%w: %s", ErrUnknownUser, a.UserEmail)
	}
	facts.UserName = u.Name

	caretakers, err := s.caretakers.ListCaretakers(ctx, a.UserEmail)
	if err != nil {
		slog.Warn("alert: caretaker lookup failed", "user", a.UserEmail, "error", err)
	}
	a.NotifiedTo = make([]string, 0, len(caretakers))
	for _, c := range caretakers {
		a.NotifiedTo = append(a.NotifiedTo, fmt.Sprintf("%s (%s)", c.Name, c.Contact))
		facts.Caretakers = append(facts.Caretakers, c.Name)
	}
	if len(caretakers) == 0 {
		slog.Warn("alert raised but no caretakers registered", "user", a.UserEmail, "monitor", a.Monitor)
	}

	a.Notification = s.composer.Compose(ctx, facts)

	if err := s.alerts.CreateAlert(ctx, a); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

// List returns the user's recent alerts, newest first.
func (s *AlertService) List(ctx context.Context, userEmail string, limit int) ([]models.Alert, error) {
	return s.alerts.ListAlerts(ctx, userEmail, limit)
}
