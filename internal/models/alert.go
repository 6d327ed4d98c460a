package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Monitor kinds.
const (
	MonitorHealth = "health"
	MonitorSafety = "safety"
)

// SpokenAlert is read aloud by the client when a monitor raises an alert.
const SpokenAlert = "An alert has been sent to your caretakers"

// Alert is a monitor decision that requires caretaker attention.
type Alert struct {
	ID           surrealmodels.RecordID `json:"id"`
	UserEmail    string                 `json:"user_email"`
	Monitor      string                 `json:"monitor"`
	Decision     string                 `json:"decision"`
	Votes        []int                  `json:"votes"`
	Features     []float64              `json:"features"`
	Source       string                 `json:"source"` // "api" or "mqtt"
	Notification string                 `json:"notification,omitempty"`
	NotifiedTo   []string               `json:"notified_to,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// AlertEvent is the wire form of an alert pushed to live subscribers.
type AlertEvent struct {
	ID           string    `json:"id"`
	Monitor      string    `json:"monitor"`
	Decision     string    `json:"decision"`
	Votes        []int     `json:"votes"`
	Notification string    `json:"notification,omitempty"`
	NotifiedTo   []string  `json:"notified_to,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event converts a to its wire form.
func (a *Alert) Event() AlertEvent {
	id, _ := RecordIDString(a.ID)
	return AlertEvent{
		ID:           id,
		Monitor:      a.Monitor,
		Decision:     a.Decision,
		Votes:        a.Votes,
		Notification: a.Notification,
		NotifiedTo:   a.NotifiedTo,
		CreatedAt:    a.CreatedAt,
	}
}
