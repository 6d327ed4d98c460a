package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// CreateCaretaker adds a caretaker for the user with the given email.
func (c *Client) CreateCaretaker(ctx context.Context, userEmail string, in models.CaretakerInput) (*models.Caretaker, error) {
	results, err := query[[]models.Caretaker](ctx, c, `
		CREATE type::record("caretaker", $id) SET
			user_email = $user_email,
			name = $name,
			contact = $contact,
			relation = $relation,
			created_at = time::now()
		RETURN AFTER
	`, map[string]any{
		"id":         uuid.NewString(),
		"user_email": userEmail,
		"name":       in.Name,
		"contact":    in.Contact,
		"relation":   in.Relation,
	})
	if err != nil {
		return nil, fmt.Errorf("create caretaker: %w", err)
	}

	created := first(results)
	if created == nil {
		return nil, fmt.Errorf("create caretaker: no result returned")
	}
	return created, nil
}

// ListCaretakers returns the user's caretakers, oldest first.
func (c *Client) ListCaretakers(ctx context.Context, userEmail string) ([]models.Caretaker, error) {
	results, err := query[[]models.Caretaker](ctx, c, `
		SELECT * FROM caretaker WHERE user_email = $user_email ORDER BY created_at ASC
	`, map[string]any{"user_email": userEmail})
	if err != nil {
		return nil, fmt.Errorf("list caretakers: %w", err)
	}
	return rows(results), nil
}

// DeleteCaretaker removes one of the user's caretakers.
// Returns ErrNotFound if the caretaker does not exist or belongs to someone else.
func (c *Client) DeleteCaretaker(ctx context.Context, userEmail, id string) error {
	// RETURN BEFORE yields the deleted record, so an empty result means nothing matched
	results, err := query[[]models.Caretaker](ctx, c, `
		DELETE type::record("caretaker", $id) WHERE user_email = $user_email RETURN BEFORE
	`, map[string]any{"id": id, "user_email": userEmail})
	if err != nil {
		return fmt.Errorf("delete caretaker: %w", err)
	}
	if first(results) == nil {
		return fmt.Errorf("delete caretaker %s: %w", id, ErrNotFound)
	}
	return nil
}
