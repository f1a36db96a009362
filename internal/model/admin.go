// Package model defines the domain records persisted by the EMI admin API.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a lender account in the admin console. The first registered admin
// becomes the super admin; everyone else starts with a small credit balance
// spent on registration code generation.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	Credits      int       `json:"credits"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"` // lender address used in contracts
	CreatedAt    time.Time `json:"created_at"`
}

// NewAdmin creates an admin with a fresh ID and creation timestamp.
func NewAdmin(username, passwordHash, role string) *Admin {
	return &Admin{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Credits:      5,
		CreatedAt:    time.Now().UTC(),
	}
}

// AdminToken binds an opaque API token to an admin. Each admin holds at most
// one active token; logging in again replaces it.
type AdminToken struct {
	Token     string    `json:"token"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
