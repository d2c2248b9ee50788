package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking routes. reserveLimiter guards the public
// reservation endpoint.
func RegisterRoutes(g *gin.RouterGroup, h *BookingHandler, authMiddleware, adminMiddleware, reserveLimiter gin.HandlerFunc) {
	// Reservations hang off the room they book.
	roomGroup := g.Group("/rooms/:id/bookings")
	{
		roomGroup.POST("", reserveLimiter, h.Reserve)
		roomGroup.GET("", authMiddleware, adminMiddleware, h.ListByRoom)
	}

	bookingGroup := g.Group("/bookings")
	{
		// === Public Routes ===
		bookingGroup.GET("/confirmation/:code", h.GetByConfirmationCode)

		// === Authenticated Routes (admin or owner, checked in the handler) ===
		bookingGroup.GET("/guest/:email", authMiddleware, h.ListByGuestEmail)
		bookingGroup.DELETE("/:id", authMiddleware, h.Cancel)

		// === Administration Routes ===
		bookingGroup.GET("", authMiddleware, adminMiddleware, h.ListAll)
	}
}
