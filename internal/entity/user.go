package entity

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognised by the application.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account that can sign in through any configured strategy.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	DisplayName  string    `json:"display_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	GoogleID     *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can use local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Name returns the display name, falling back to the email address.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
