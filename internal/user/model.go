package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is a closed set: only hospitals and patients exist in this system
type Role string

const (
	RoleHospital Role = "hospital"
	RolePatient  Role = "patient"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleHospital || r == RolePatient
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Role         Role       `json:"role"`
	FullName     *string    `json:"full_name"`
	IsActive     bool       `json:"is_active"`
	DOB          *time.Time `json:"dob,omitempty"`
	Sex          *string    `json:"sex,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicUser is the user view returned by the API: never the hash,
// always id, email, role, full_name and is_active
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	FullName *string   `json:"full_name"`
	IsActive bool      `json:"is_active"`
}

// Public returns the API view of u
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.FullName,
		IsActive: u.IsActive,
	}
}
