package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers role administration routes (ROLE_ADMIN only).
func RegisterRoutes(g *gin.RouterGroup, h *RoleHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	roleGroup := g.Group("/roles")
	roleGroup.Use(authMiddleware, adminMiddleware)
	{
		roleGroup.GET("", h.List)
		roleGroup.POST("", h.Create)
		roleGroup.GET("/:id", h.Get)
		roleGroup.DELETE("/:id", h.Delete)

		// --- Member Management ---
		roleGroup.GET("/:id/members", h.ListMembers)
		roleGroup.POST("/:id/members", h.AddMember)
		roleGroup.DELETE("/:id/members", h.RemoveAllMembers)
		roleGroup.DELETE("/:id/members/:user_id", h.RemoveMember)
	}
}
