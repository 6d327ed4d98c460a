// Package service provides business logic for carewatch operations.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/raphaelgruber/carewatch/internal/db"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// Validation and authentication errors.
var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidReminderType = errors.New("invalid reminder type")
	ErrMissingColumn       = errors.New("missing CSV column")
	ErrUnknownUser         = errors.New("unknown user")
)

// UserStore persists accounts. *db.Client implements it.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CaretakerStore persists caretakers. *db.Client implements it.
type CaretakerStore interface {
	CreateCaretaker(ctx context.Context, userEmail string, in models.CaretakerInput) (*models.Caretaker, error)
	ListCaretakers(ctx context.Context, userEmail string) ([]models.Caretaker, error)
	DeleteCaretaker(ctx context.Context, userEmail, id string) error
}

// ReminderStore persists reminders. *db.Client implements it.
type ReminderStore interface {
	CreateReminders(ctx context.Context, deviceID string, in []models.ReminderInput) ([]models.Reminder, error)
	ListReminders(ctx context.Context, deviceID string) ([]models.Reminder, error)
	ListRemindersBetween(ctx context.Context, deviceID string, from, to time.Time) ([]models.Reminder, error)
	AckReminder(ctx context.Context, deviceID, id string) (*models.Reminder, error)
}

// AlertStore persists alerts. *db.Client implements it.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context, userEmail string, limit int) ([]models.Alert, error)
}

// Store is every persistence method the server needs.
type Store interface {
	UserStore
	CaretakerStore
	ReminderStore
	AlertStore
}

var (
	_ Store = (*db.Client)(nil)
	_ Store = (*db.Memory)(nil)

	_ UserStore      = (*db.Client)(nil)
	_ CaretakerStore = (*db.Client)(nil)
	_ ReminderStore  = (*db.Client)(nil)
	_ AlertStore     = (*db.Client)(nil)

	_ UserStore      = (*db.Memory)(nil)
	_ CaretakerStore = (*db.Memory)(nil)
	_ ReminderStore  = (*db.Memory)(nil)
	_ AlertStore     = (*db.Memory)(nil)
)
