package user

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.Conflict("email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrEmailRequired      = apperror.Validation("email is required")
	ErrNameRequired       = apperror.Validation("first and last name are required")
	ErrPasswordTooShort   = apperror.Validation("password must be at least 8 characters")
)

// User is an account that can sign in. Guests do not need one to reserve a room.
type User struct {
	ID           string // UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// Filter defines filter options for listing users.
type Filter struct {
	Email     string // substring, case-insensitive
	Page      int
	PageSize  int
	SortOrder string
}
