package auth

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
)

// Well-known role names. Custom roles follow the same ROLE_ prefix.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRoles = "userRoles"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetUserRoles returns the roles carried by the access token.
func GetUserRoles(c *gin.Context) []string {
	return c.GetStringSlice(ctxUserRoles)
}

func HasRole(c *gin.Context, role string) bool {
	return slices.Contains(GetUserRoles(c), role)
}

// SetIdentity stores the authenticated identity on the request context.
func SetIdentity(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserEmail, claims.Email)
	c.Set(ctxUserRoles, claims.Roles)
}

// RoleChecker looks up a user's current roles. Token roles can be stale after
// a role change, so permission decisions go through the store.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// IsAdmin reports whether the authenticated user currently holds ROLE_ADMIN.
func IsAdmin(c *gin.Context, checker RoleChecker) (bool, error) {
	return checker.HasRole(c.Request.Context(), GetUserID(c), RoleAdmin)
}
