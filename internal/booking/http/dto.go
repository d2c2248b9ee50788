package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
)

// ReserveBody is the payload for POST /rooms/:id/bookings.
// Any confirmation code or guest total in the payload is ignored.
type ReserveBody struct {
	CheckIn       calendar.Date `json:"check_in"`
	CheckOut      calendar.Date `json:"check_out"`
	GuestFullName string        `json:"guest_full_name" binding:"required"`
	GuestEmail    string        `json:"guest_email" binding:"required,email"`
	Adults        int           `json:"adults"`
	Children      int           `json:"children"`
}

func (b *ReserveBody) toRequest() booking.ReserveRequest {
	return booking.ReserveRequest{
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		GuestFullName: b.GuestFullName,
		GuestEmail:    b.GuestEmail,
		Adults:        b.Adults,
		Children:      b.Children,
	}
}

type ReserveResponse struct {
	ConfirmationCode string `json:"confirmation_code"`
}

// ByRoomRequest binds the :id path parameter of nested room routes.
type ByRoomRequest struct {
	RoomID string `uri:"id" binding:"required,uuid"`
}

type ByCodeRequest struct {
	Code string `uri:"code" binding:"required"`
}

type ByGuestEmailRequest struct {
	Email string `uri:"email" binding:"required,email"`
}

// BookingRoom is the room summary embedded in a booking.
type BookingRoom struct {
	ID        string `json:"id"`
	RoomType  string `json:"room_type"`
	RoomPrice string `json:"room_price"`
}

type BookingResponse struct {
	ID               string        `json:"id"`
	Room             BookingRoom   `json:"room"`
	CheckIn          calendar.Date `json:"check_in"`
	CheckOut         calendar.Date `json:"check_out"`
	Nights           int           `json:"nights"`
	GuestFullName    string        `json:"guest_full_name"`
	GuestEmail       string        `json:"guest_email"`
	Adults           int           `json:"adults"`
	Children         int           `json:"children"`
	TotalGuests      int           `json:"total_guests"`
	ConfirmationCode string        `json:"confirmation_code"`
	CreatedAt        time.Time     `json:"created_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID,
		Room: BookingRoom{
			ID:        b.RoomID,
			RoomType:  b.RoomType,
			RoomPrice: b.RoomPrice.StringFixed(2),
		},
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Nights:           b.Range().Nights(),
		GuestFullName:    b.GuestFullName,
		GuestEmail:       b.GuestEmail,
		Adults:           b.Adults,
		Children:         b.Children,
		TotalGuests:      b.TotalGuests,
		ConfirmationCode: b.ConfirmationCode,
		CreatedAt:        b.CreatedAt,
	}
}

func newBookingList(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}
