package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User is an elder-care account holder.
type User struct {
	ID            surrealmodels.RecordID `json:"id"`
	Name          string                 `json:"name"`
	Age           int                    `json:"age"`
	Email         string                 `json:"email"`
	ContactNumber string                 `json:"contact_number"`
	City          string                 `json:"city"`
	PasswordHash  string                 `json:"password"`
	CreatedAt     time.Time              `json:"created_at"`
}

// SignupInput carries the signup form.
type SignupInput struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	City          string `json:"city"`
	Password      string `json:"password"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the public view of a user.
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	City          string `json:"city"`
}

// Profile strips credentials from u.
func (u *User) Profile() Profile {
	id, _ := RecordIDString(u.ID)
	return Profile{
		ID:            id,
		Name:          u.Name,
		Age:           u.Age,
		Email:         u.Email,
		ContactNumber: u.ContactNumber,
		City:          u.City,
	}
}
