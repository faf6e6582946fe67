package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleFuncionario UserRole = "FUNCIONARIO"
	RolePaciente    UserRole = "PACIENTE"
)

// IsStaff reports whether the role operates the clinic agenda.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleFuncionario
}

// User represents an application user stored in the users table.
// Authorized is flipped by an administrator after self-registration.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	Authorized   bool      `db:"authorized" json:"authorized"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
