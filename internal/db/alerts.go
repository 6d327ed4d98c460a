package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// CreateAlert stores a and sets its ID.
func (c *Client) CreateAlert(ctx context.Context, a *models.Alert) error {
	notifiedTo := a.NotifiedTo
	if notifiedTo == nil {
		notifiedTo = []string{}
	}

	results, err := query[[]models.Alert](ctx, c, `
		CREATE type::record("alert", $id) SET
			user_email = $user_email,
			monitor = $monitor,
			decision = $decision,
			votes = $votes,
			features = $features,
			source = $source,
			notification = $notification,
			notified_to = $notified_to,
			created_at = $created_at
		RETURN AFTER
	`, map[string]any{
		"id":           uuid.NewString(),
		"user_email":   a.UserEmail,
		"monitor":      a.Monitor,
		"decision":     a.Decision,
		"votes":        a.Votes,
		"features":     a.Features,
		"source":       a.Source,
		"notification": a.Notification,
		"notified_to":  notifiedTo,
		"created_at":   a.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	created := first(results)
	if created == nil {
		return fmt.Errorf("create alert: no result returned")
	}
	a.ID = created.ID
	return nil
}

// ListAlerts returns the user's most recent alerts, newest first.
func (c *Client) ListAlerts(ctx context.Context, userEmail string, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := query[[]models.Alert](ctx, c, `
		SELECT * FROM alert WHERE user_email = $user_email ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"user_email": userEmail, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return rows(results), nil
}
