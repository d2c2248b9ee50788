package room

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("room not found")
	ErrEmptyRoomType    = apperror.Validation("room type cannot be empty")
	ErrNegativePrice    = apperror.Validation("room price cannot be negative")
	ErrInvalidPhoto     = apperror.Validation("photo must be a valid image")
	ErrNoPhoto          = apperror.NotFound("room has no photo")
	ErrHasBookings      = apperror.Conflict("room has bookings and cannot be deleted")
	ErrInvalidDateRange = apperror.Validation("check-in date must precede check-out date")
)

// Room is a bookable hotel room. Bookings reference it by ID.
type Room struct {
	ID            string
	RoomType      string
	Price         decimal.Decimal
	PhotoPath     string
	ThumbnailPath string
	CreatedAt     time.Time
}

func (r *Room) HasPhoto() bool {
	return r.PhotoPath != ""
}

// Filter defines parameters for listing rooms.
type Filter struct {
	RoomType  string
	Page      int
	PageSize  int
	SortOrder string
}
