package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/carewatch/internal/models"
)

// ReminderService manages scheduled reminders. Reminders are keyed by the
// owner's email, which doubles as the device ID in reminder sheets.
type ReminderService struct {
	store ReminderStore
	loc   *time.Location
}

// NewReminderService creates a reminder service. Calendar days are
// computed in loc (UTC when nil).
func NewReminderService(store ReminderStore, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{store: store, loc: loc}
}

// Location returns the time zone used for calendar days.
func (s *ReminderService) Location() *time.Location {
	return s.loc
}

// Add schedules a new reminder. It starts unsent and unacknowledged.
func (s *ReminderService) Add(ctx context.Context, userEmail string, in models.ReminderInput) (*models.Reminder, error) {
	t, ok := models.ParseReminderType(string(in.Type))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReminderType, in.Type)
	}
	in.Type = t
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message", ErrMissingField)
	}
	if in.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: timestamp", ErrMissingField)
	}
	in.Sent, in.Ack = false, false

	created, err := s.store.CreateReminders(ctx, userEmail, []models.ReminderInput{in})
	if err != nil {
		return nil, fmt.Errorf("add reminder: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("add reminder: no result returned")
	}
	return &created[0], nil
}

// ListDay returns the user's reminders on the calendar day containing day,
// ordered by time and narrowed by filter.
func (s *ReminderService) ListDay(ctx context.Context, userEmail string, day time.Time, filter models.ReminderFilter) ([]models.Reminder, error) {
	from, to := models.DayBounds(day, s.loc)
	rs, err := s.store.ListRemindersBetween(ctx, userEmail, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return filter.Apply(rs), nil
}

// List returns all of the user's reminders narrowed by filter.
func (s *ReminderService) List(ctx context.Context, userEmail string, filter models.ReminderFilter) ([]models.Reminder, error) {
	rs, err := s.store.ListReminders(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return filter.Apply(rs), nil
}

// Ack marks a reminder acknowledged. Acknowledging twice is not an error.
func (s *ReminderService) Ack(ctx context.Context, userEmail, id string) (*models.Reminder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	return s.store.AckReminder(ctx, userEmail, id)
}

// ParseDate reads a YYYY-MM-DD calendar date in the service's time zone.
func (s *ReminderService) ParseDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(v), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q (want YYYY-MM-DD)", ErrInvalidInput, v)
	}
	return d, nil
}
