package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Caretaker is someone notified when a monitor raises an alert.
type Caretaker struct {
	ID        surrealmodels.RecordID `json:"id"`
	UserEmail string                 `json:"user_email"`
	Name      string                 `json:"name"`
	Contact   string                 `json:"contact"`
	Relation  string                 `json:"relation"`
	CreatedAt time.Time              `json:"created_at"`
}

// CaretakerInput is the input for adding a caretaker.
type CaretakerInput struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Relation string `json:"relation"`
}

// CaretakerView is the API form of a caretaker.
type CaretakerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Relation string `json:"relation"`
}

// View converts c to its API form.
func (c *Caretaker) View() CaretakerView {
	id, _ := RecordIDString(c.ID)
	return CaretakerView{ID: id, Name: c.Name, Contact: c.Contact, Relation: c.Relation}
}
