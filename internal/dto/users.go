package dto

import "github.com/octobees/portal/internal/entity"

// RegisterRequest captures self-service registration payloads.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest is used by administrators to create new users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest captures administrator-triggered partial updates.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// ProfileRequest is submitted from the profile page.
type ProfileRequest struct {
	DisplayName string `form:"display_name" json:"display_name"`
	Phone       string `form:"phone" json:"phone"`
}

// UserResponse represents user data returned to clients.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// NewUserResponse projects an entity onto the public representation.
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
	}
}
