package users

import (
	"strings"
	"time"
)

// Role values accepted for users.
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
	RoleUser   = "User"
)

// User is the stored record. The hash is serialized into the collection but never returned
// outside this package.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is a user without credentials.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserInput carries a new user with a plaintext password.
type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=Admin Editor User"`
}

// UpdateUserInput is a partial update; nil fields are left alone.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=200"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Role     *string `json:"role" validate:"omitnil,oneof=Admin Editor User"`
	Password *string `json:"password" validate:"omitnil,min=8,max=72"`
}

func (in UpdateUserInput) empty() bool {
	return in.Name == nil && in.Email == nil && in.Role == nil && in.Password == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
