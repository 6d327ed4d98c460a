package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// CreateReminders inserts reminders for the device in one statement.
func (c *Client) CreateReminders(ctx context.Context, deviceID string, in []models.ReminderInput) ([]models.Reminder, error) {
	if len(in) == 0 {
		return []models.Reminder{}, nil
	}

	records := make([]map[string]any, len(in))
	for i, r := range in {
		records[i] = map[string]any{
			"id":            uuid.NewString(),
			"device_id":     deviceID,
			"reminder_type": string(r.Type),
			"timestamp":     r.Timestamp.UTC(),
			"message":       r.Message,
			"reminder_sent": r.Sent,
			"acknowledged":  r.Ack,
		}
	}

	results, err := query[[]models.Reminder](ctx, c, `
		INSERT INTO reminder $records RETURN AFTER
	`, map[string]any{"records": records})
	if err != nil {
		return nil, fmt.Errorf("create reminders: %w", err)
	}
	return rows(results), nil
}

// ListReminders returns all of the device's reminders ordered by time.
func (c *Client) ListReminders(ctx context.Context, deviceID string) ([]models.Reminder, error) {
	results, err := query[[]models.Reminder](ctx, c, `
		SELECT * FROM reminder WHERE device_id = $device_id ORDER BY timestamp ASC
	`, map[string]any{"device_id": deviceID})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return rows(results), nil
}

// ListRemindersBetween returns the device's reminders in [from, to) ordered by time.
func (c *Client) ListRemindersBetween(ctx context.Context, deviceID string, from, to time.Time) ([]models.Reminder, error) {
	results, err := query[[]models.Reminder](ctx, c, `
		SELECT * FROM reminder
		WHERE device_id = $device_id AND timestamp >= $from AND timestamp < $to
		ORDER BY timestamp ASC
	`, map[string]any{
		"device_id": deviceID,
		"from":      from.UTC(),
		"to":        to.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("list reminders between: %w", err)
	}
	return rows(results), nil
}

// AckReminder marks one of the device's reminders acknowledged. Acknowledging
// twice is not an error. Returns ErrNotFound if no such reminder is owned by deviceID.
func (c *Client) AckReminder(ctx context.Context, deviceID, id string) (*models.Reminder, error) {
	results, err := query[[]models.Reminder](ctx, c, `
		UPDATE type::record("reminder", $id) SET acknowledged = true
		WHERE device_id = $device_id
		RETURN AFTER
	`, map[string]any{"id": id, "device_id": deviceID})
	if err != nil {
		return nil, fmt.Errorf("ack reminder: %w", err)
	}

	updated := first(results)
	if updated == nil {
		return nil, fmt.Errorf("ack reminder %s: %w", id, ErrNotFound)
	}
	return updated, nil
}
