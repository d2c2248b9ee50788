package role

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.NotFound("role not found")
	ErrUserNotFound    = apperror.NotFound("user not found")
	ErrNotAssigned     = apperror.NotFound("user is not assigned to this role")
	ErrNameRequired    = apperror.Validation("role name is required")
	ErrAlreadyExists   = apperror.Conflict("role already exists")
	ErrAlreadyAssigned = apperror.Conflict("user is already assigned to this role")
	ErrBuiltinRole     = apperror.Conflict("built-in roles cannot be deleted")
)

// NamePrefix is prepended to every stored role name.
const NamePrefix = "ROLE_"

// Role is a named permission group. Users hold any number of roles.
type Role struct {
	ID        string // UUID
	Name      string
	UserCount int
	CreatedAt time.Time
}

// Member is a user holding a role, joined from user_roles and users.
type Member struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}
