package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers room routes. Browsing is public; changes need ROLE_ADMIN.
func RegisterRoutes(g *gin.RouterGroup, h *RoomHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	roomGroup := g.Group("/rooms")

	// === Public Routes ===
	{
		roomGroup.GET("", h.List)
		roomGroup.GET("/types", h.ListTypes)
		roomGroup.GET("/available", h.ListAvailable)
		roomGroup.GET("/:id", h.Get)
		roomGroup.GET("/:id/photo", h.Photo)
		roomGroup.GET("/:id/thumbnail", h.Thumbnail)
	}

	// === Administration Routes ===
	adminGroup := roomGroup.Group("")
	adminGroup.Use(authMiddleware, adminMiddleware)
	{
		adminGroup.POST("", h.Create)
		adminGroup.PATCH("/:id", h.Update)
		adminGroup.DELETE("/:id", h.Delete)
	}
}
