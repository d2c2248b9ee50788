package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
)

var (
	ErrNotFound          = apperror.NotFound("booking not found")
	ErrRoomNotFound      = apperror.NotFound("room not found")
	ErrInvalidDateRange  = apperror.Validation("check-in date must precede check-out date")
	ErrRoomUnavailable   = apperror.Conflict("room not available for the selected dates")
	ErrEmptyGuestName    = apperror.Validation("guest full name cannot be empty")
	ErrInvalidGuestEmail = apperror.Validation("guest email is invalid")
	ErrInvalidAdults     = apperror.Validation("at least one adult is required")
	ErrInvalidChildren   = apperror.Validation("number of children cannot be negative")
)

// ErrDuplicateCode is returned by Tx.Create when the confirmation code is already taken.
// The engine retries with a fresh code; it never reaches clients.
var ErrDuplicateCode = errors.New("confirmation code already in use")

// ErrCodeExhausted means every code attempt collided.
var ErrCodeExhausted = errors.New("could not allocate a unique confirmation code")

// DateRange is a stay [CheckIn, CheckOut): the guest leaves on CheckOut,
// so another stay may start that same day.
type DateRange struct {
	CheckIn  calendar.Date
	CheckOut calendar.Date
}

// Valid reports whether both dates are set and CheckIn is strictly before CheckOut.
func (r DateRange) Valid() bool {
	return !r.CheckIn.IsZero() && !r.CheckOut.IsZero() && r.CheckIn.Before(r.CheckOut)
}

// Nights is the number of nights in the stay.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Time().Sub(r.CheckIn.Time()).Hours() / 24)
}

// Booking is a confirmed reservation of one room for one stay.
// RoomType and RoomPrice describe the room for display and are never written back.
type Booking struct {
	ID               string
	RoomID           string
	RoomType         string
	RoomPrice        decimal.Decimal
	CheckIn          calendar.Date
	CheckOut         calendar.Date
	GuestFullName    string
	GuestEmail       string
	Adults           int
	Children         int
	TotalGuests      int
	ConfirmationCode string
	CreatedAt        time.Time
}

// SetGuests updates the party size and keeps TotalGuests in sync.
func (b *Booking) SetGuests(adults, children int) {
	b.Adults = adults
	b.Children = children
	b.TotalGuests = adults + children
}

func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// ReserveRequest is what a guest submits to reserve a room.
// There is no confirmation code or total guest count: both are derived.
type ReserveRequest struct {
	CheckIn       calendar.Date
	CheckOut      calendar.Date
	GuestFullName string
	GuestEmail    string
	Adults        int
	Children      int
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	RoomID     string
	GuestEmail string // exact, case-sensitive
}
