package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	request.ListParams
	RoomType string `form:"room_type"`
}

// AvailableRoomsRequest defines query parameters for GET /rooms/available.
// Dates are ISO calendar dates (YYYY-MM-DD).
type AvailableRoomsRequest struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
	RoomType string `form:"room_type"`
}

// Parse converts the raw query values into a service query.
func (r *AvailableRoomsRequest) Parse() (room.AvailabilityQuery, error) {
	checkIn, err := calendar.Parse(r.CheckIn)
	if err != nil {
		return room.AvailabilityQuery{}, err
	}
	checkOut, err := calendar.Parse(r.CheckOut)
	if err != nil {
		return room.AvailabilityQuery{}, err
	}
	return room.AvailabilityQuery{CheckIn: checkIn, CheckOut: checkOut, RoomType: r.RoomType}, nil
}

// RoomBookingResponse is the short form of a booking embedded in a room.
type RoomBookingResponse struct {
	ID               string        `json:"id"`
	CheckIn          calendar.Date `json:"check_in"`
	CheckOut         calendar.Date `json:"check_out"`
	ConfirmationCode string        `json:"confirmation_code"`
}

type RoomResponse struct {
	ID           string                `json:"id"`
	RoomType     string                `json:"room_type"`
	RoomPrice    string                `json:"room_price"`
	IsBooked     bool                  `json:"is_booked"`
	PhotoURL     *string               `json:"photo_url"`
	ThumbnailURL *string               `json:"thumbnail_url"`
	Bookings     []RoomBookingResponse `json:"bookings"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewRoomResponse converts a room and its current bookings to the API shape.
func NewRoomResponse(r *room.Room, bookings []*booking.Booking) RoomResponse {
	items := make([]RoomBookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = RoomBookingResponse{
			ID:               b.ID,
			CheckIn:          b.CheckIn,
			CheckOut:         b.CheckOut,
			ConfirmationCode: b.ConfirmationCode,
		}
	}

	resp := RoomResponse{
		ID:        r.ID,
		RoomType:  r.RoomType,
		RoomPrice: r.Price.StringFixed(2),
		IsBooked:  len(items) > 0,
		Bookings:  items,
		CreatedAt: r.CreatedAt,
	}
	if r.HasPhoto() {
		photo := "/v1/rooms/" + r.ID + "/photo"
		thumb := "/v1/rooms/" + r.ID + "/thumbnail"
		resp.PhotoURL = &photo
		resp.ThumbnailURL = &thumb
	}
	return resp
}
