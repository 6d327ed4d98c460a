package db

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Memory is an in-memory store with the same query methods as Client.
// It backs the server in development (CAREWATCH_STORE=memory) and tests.
type Memory struct {
	mu         sync.Mutex
	users      map[string]models.User
	caretakers []models.Caretaker
	reminders  []models.Reminder
	alerts     []models.Alert
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{users: map[string]models.User{}}
}

func newRecordID(table string) surrealmodels.RecordID {
	return surrealmodels.RecordID{Table: table, ID: uuid.NewString()}
}

func (m *Memory) CreateUser(_ context.Context, u models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return nil, ErrAlreadyExists
	}
	u.ID = newRecordID("user")
	u.CreatedAt = time.Now()
	m.users[u.Email] = u
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) CreateCaretaker(_ context.Context, userEmail string, in models.CaretakerInput) (*models.Caretaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := models.Caretaker{
		ID:        newRecordID("caretaker"),
		UserEmail: userEmail,
		Name:      in.Name,
		Contact:   in.Contact,
		Relation:  in.Relation,
		CreatedAt: time.Now(),
	}
	m.caretakers = append(m.caretakers, c)
	return &c, nil
}

func (m *Memory) ListCaretakers(_ context.Context, userEmail string) ([]models.Caretaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Caretaker{}
	for _, c := range m.caretakers {
		if c.UserEmail == userEmail {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) DeleteCaretaker(_ context.Context, userEmail, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.caretakers {
		if c.UserEmail == userEmail && c.ID.ID == id {
			m.caretakers = slices.Delete(m.caretakers, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateReminders(_ context.Context, deviceID string, in []models.ReminderInput) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Reminder{}
	for _, r := range in {
		rem := models.Reminder{
			ID:           newRecordID("reminder"),
			DeviceID:     deviceID,
			Type:         r.Type,
			Timestamp:    r.Timestamp.UTC(),
			Message:      r.Message,
			Sent:         r.Sent,
			Acknowledged: r.Ack,
		}
		m.reminders = append(m.reminders, rem)
		out = append(out, rem)
	}
	return out, nil
}

func (m *Memory) ListReminders(ctx context.Context, deviceID string) ([]models.Reminder, error) {
	return m.ListRemindersBetween(ctx, deviceID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *Memory) ListRemindersBetween(_ context.Context, deviceID string, from, to time.Time) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Reminder{}
	for _, r := range m.reminders {
		if r.DeviceID == deviceID && !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) AckReminder(_ context.Context, deviceID, id string) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reminders {
		if r.DeviceID == deviceID && r.ID.ID == id {
			m.reminders[i].Acknowledged = true
			out := m.reminders[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateAlert(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = newRecordID("alert")
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *Memory) ListAlerts(_ context.Context, userEmail string, limit int) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Alert{}
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if strings.EqualFold(m.alerts[i].UserEmail, userEmail) {
			out = append(out, m.alerts[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
