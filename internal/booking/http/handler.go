package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

type BookingHandler struct {
	service booking.Service
	roles   auth.RoleChecker
}

func NewHandler(service booking.Service, roles auth.RoleChecker) *BookingHandler {
	return &BookingHandler{
		service: service,
		roles:   roles,
	}
}

// Reserve books a room for a guest and returns the confirmation code.
// Guests do not need an account.
func (h *BookingHandler) Reserve(c *gin.Context) {
	var uri ByRoomRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body ReserveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	code, err := h.service.Reserve(c.Request.Context(), uri.RoomID, body.toRequest())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReserveResponse{ConfirmationCode: code})
}

// ListByRoom returns every booking of one room.
// Access Control: ROLE_ADMIN only.
func (h *BookingHandler) ListByRoom(c *gin.Context) {
	var uri ByRoomRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	bookings, err := h.service.ListByRoom(c.Request.Context(), uri.RoomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewListResponse(newBookingList(bookings)))
}

// ListAll returns every booking.
// Access Control: ROLE_ADMIN only.
func (h *BookingHandler) ListAll(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewListResponse(newBookingList(bookings)))
}

// GetByConfirmationCode looks a booking up by the code the guest received.
func (h *BookingHandler) GetByConfirmationCode(c *gin.Context) {
	var uri ByCodeRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.FindByConfirmationCode(c.Request.Context(), uri.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// ListByGuestEmail returns bookings made under an exact guest email.
// Access Control: ROLE_ADMIN or the owner of that email.
func (h *BookingHandler) ListByGuestEmail(c *gin.Context) {
	var uri ByGuestEmailRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if !h.authorize(c, uri.Email) {
		return
	}

	bookings, err := h.service.ListByGuestEmail(c.Request.Context(), uri.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewListResponse(newBookingList(bookings)))
}

// Cancel removes a booking. It answers 204 for unknown bookings too.
// Access Control: ROLE_ADMIN or the guest who made the booking.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	ctx := c.Request.Context()
	b, err := h.service.GetByID(ctx, uri.ID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		response.Error(c, err)
		return
	}

	if !h.authorize(c, b.GuestEmail) {
		return
	}

	if err := h.service.Cancel(ctx, uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// authorize lets admins and the owner of guestEmail through.
// It writes the error response itself and reports false when the request must stop.
func (h *BookingHandler) authorize(c *gin.Context, guestEmail string) bool {
	if strings.EqualFold(auth.GetUserEmail(c), guestEmail) {
		return true
	}
	isAdmin, err := auth.IsAdmin(c, h.roles)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !isAdmin {
		c.JSON(http.StatusForbidden, response.ErrorResponse{Error: "permission denied"})
		return false
	}
	return true
}
