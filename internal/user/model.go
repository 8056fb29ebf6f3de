package user

import (
	"net/http"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
)

// Role determines what a user may do. STAFF and ADMIN users can be
// assigned to appointments; ADMIN additionally manages the system.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// User represents a help-desk staff member or administrator.
type User struct {
	ID           string // UUID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Assignable reports whether users with this role may be assigned to
// appointments.
func (r Role) Assignable() bool {
	return r == RoleStaff || r == RoleAdmin
}
