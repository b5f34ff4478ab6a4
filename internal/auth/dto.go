package auth

import (
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// LoginRequest carries the credentials forwarded to the storefront api.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// User is the signed-in account as reported by GET /auth/me.
type User struct {
	ID         int64           `json:"id"`
	Email      string          `json:"email"`
	Role       enums.UserRole  `json:"role"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Phone      string          `json:"phone,omitempty"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	IsActive   bool            `json:"is_active"`
	IsVerified bool            `json:"is_verified"`
	CreatedAt  types.Timestamp `json:"created_at"`
	UpdatedAt  types.Timestamp `json:"updated_at"`
}

// FullName joins first and last name for contact defaults.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
