package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// CreateUser inserts a user. The password must already be hashed.
// Returns ErrAlreadyExists when the email is taken.
func (c *Client) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	results, err := query[[]models.User](ctx, c, `
		CREATE type::record("user", $id) SET
			name = $name,
			age = $age,
			email = $email,
			contact_number = $contact_number,
			city = $city,
			password = $password,
			created_at = time::now()
		RETURN AFTER
	`, map[string]any{
		"id":             uuid.NewString(),
		"name":           u.Name,
		"age":            u.Age,
		"email":          u.Email,
		"contact_number": u.ContactNumber,
		"city":           u.City,
		"password":       u.PasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	created := first(results)
	if created == nil {
		return nil, fmt.Errorf("create user: no result returned")
	}
	return created, nil
}

// GetUserByEmail retrieves a user by email.
// Returns nil if not found.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	results, err := query[[]models.User](ctx, c, `
		SELECT * FROM user WHERE email = $email LIMIT 1
	`, map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return first(results), nil
}
