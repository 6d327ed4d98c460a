package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ReminderType categorizes a reminder.
type ReminderType string

const (
	ReminderMedication  ReminderType = "Medication"
	ReminderExercise    ReminderType = "Exercise"
	ReminderMeal        ReminderType = "Meal"
	ReminderAppointment ReminderType = "Appointment"
	ReminderOther       ReminderType = "Other"
)

// ReminderTypes lists the accepted reminder types in display order.
var ReminderTypes = []ReminderType{
	ReminderMedication, ReminderExercise, ReminderMeal, ReminderAppointment, ReminderOther,
}

// ParseReminderType matches s case-insensitively against ReminderTypes.
func ParseReminderType(s string) (ReminderType, bool) {
	for _, t := range ReminderTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// Reminder is a scheduled prompt for a user's device.
// DeviceID holds the owner's email.
type Reminder struct {
	ID           surrealmodels.RecordID `json:"id"`
	DeviceID     string                 `json:"device_id"`
	Type         ReminderType           `json:"reminder_type"`
	Timestamp    time.Time              `json:"timestamp"`
	Message      string                 `json:"message"`
	Sent         bool                   `json:"reminder_sent"`
	Acknowledged bool                   `json:"acknowledged"`
}

// ReminderInput is the input for creating a reminder.
type ReminderInput struct {
	Type      ReminderType `json:"reminder_type"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Sent      bool         `json:"reminder_sent,omitempty"`
	Ack       bool         `json:"acknowledged,omitempty"`
}

// Tristate is an "All / Yes / No" filter choice.
type Tristate string

const (
	TristateAll Tristate = "all"
	TristateYes Tristate = "yes"
	TristateNo  Tristate = "no"
)

// ParseTristate accepts all/yes/no in any case; empty means all.
func ParseTristate(s string) (Tristate, error) {
	switch normalize(s) {
	case "", "all":
		return TristateAll, nil
	case "yes", "y", "true":
		return TristateYes, nil
	case "no", "n", "false":
		return TristateNo, nil
	}
	return "", fmt.Errorf("expected all, yes or no, got %q", s)
}

func (t Tristate) match(b bool) bool {
	switch t {
	case TristateYes:
		return b
	case TristateNo:
		return !b
	}
	return true
}

// ReminderFilter narrows a day's reminders.
// An empty Types slice keeps every type.
type ReminderFilter struct {
	Types        []ReminderType
	Sent         Tristate
	Acknowledged Tristate
}

// Match reports whether r passes the filter.
func (f ReminderFilter) Match(r Reminder) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, r.Type) {
		return false
	}
	return f.Sent.match(r.Sent) && f.Acknowledged.match(r.Acknowledged)
}

// Apply returns the reminders that pass the filter, preserving order.
func (f ReminderFilter) Apply(rs []Reminder) []Reminder {
	out := make([]Reminder, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// DayBounds returns [start, end) of the calendar day containing day in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ReminderView is the API form of a reminder.
type ReminderView struct {
	ID           string       `json:"id"`
	Type         ReminderType `json:"reminder_type"`
	Timestamp    time.Time    `json:"timestamp"`
	Message      string       `json:"message"`
	Sent         bool         `json:"reminder_sent"`
	Acknowledged bool         `json:"acknowledged"`
}

// View converts r to its API form.
func (r *Reminder) View() ReminderView {
	id, _ := RecordIDString(r.ID)
	return ReminderView{
		ID:           id,
		Type:         r.Type,
		Timestamp:    r.Timestamp,
		Message:      r.Message,
		Sent:         r.Sent,
		Acknowledged: r.Acknowledged,
	}
}
