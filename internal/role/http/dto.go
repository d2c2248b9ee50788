package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/role"
)

type RoleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserCount int       `json:"user_count"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoleResponse(r *role.Role) RoleResponse {
	return RoleResponse{
		ID:        r.ID,
		Name:      r.Name,
		UserCount: r.UserCount,
		CreatedAt: r.CreatedAt,
	}
}

// CreateRoleRequest is the payload for POST /roles.
// The name is stored upper-cased with the ROLE_ prefix.
type CreateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddMemberRequest is the payload for POST /roles/:id/members.
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// MemberURIRequest binds /roles/:id/members/:user_id.
type MemberURIRequest struct {
	ID     string `uri:"id" binding:"required,uuid"`
	UserID string `uri:"user_id" binding:"required,uuid"`
}

type MemberResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func NewMemberResponse(m *role.Member) MemberResponse {
	return MemberResponse{
		UserID:    m.UserID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}
