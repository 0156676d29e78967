package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents a registered account
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	FirstName        string     `json:"firstName,omitempty" db:"first_name"`
	LastName         string     `json:"lastName,omitempty" db:"last_name"`
	Phone            string     `json:"phone,omitempty" db:"phone"`
	Role             Role       `json:"role" db:"role"`
	ResetToken       *string    `json:"-" db:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" db:"reset_token_expiry"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats summarises registered accounts for the admin dashboard
type UserStats struct {
	Total         int `json:"total"`
	Admins        int `json:"admins"`
	Customers     int `json:"customers"`
	RecentSignups int `json:"recentSignups"`
}
