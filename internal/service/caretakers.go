package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/carewatch/internal/models"
)

// CaretakerService manages the people notified on alerts.
type CaretakerService struct {
	store CaretakerStore
}

// NewCaretakerService creates a caretaker service.
func NewCaretakerService(store CaretakerStore) *CaretakerService {
	return &CaretakerService{store: store}
}

// Add creates a caretaker. Name, contact and relation are all required.
func (s *CaretakerService) Add(ctx context.Context, userEmail string, in models.CaretakerInput) (*models.Caretaker, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Relation = strings.TrimSpace(in.Relation)

	switch {
	case in.Name == "":
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	case in.Contact == "":
		return nil, fmt.Errorf("%w: contact", ErrMissingField)
	case in.Relation == "":
		return nil, fmt.Errorf("%w: relation", ErrMissingField)
	}

	c, err := s.store.CreateCaretaker(ctx, userEmail, in)
	if err != nil {
		return nil, fmt.Errorf("add caretaker: %w", err)
	}
	return c, nil
}

// List returns the user's caretakers.
func (s *CaretakerService) List(ctx context.Context, userEmail string) ([]models.Caretaker, error) {
	return s.store.ListCaretakers(ctx, userEmail)
}

// Delete removes one of the user's caretakers.
func (s *CaretakerService) Delete(ctx context.Context, userEmail, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	return s.store.DeleteCaretaker(ctx, userEmail, id)
}
