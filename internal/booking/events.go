package booking

import (
	"context"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
)

const (
	EventReserved  = "booking.reserved"
	EventCancelled = "booking.cancelled"
)

// EventPublisher delivers booking events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Event is the payload of every booking event.
type Event struct {
	BookingID        string        `json:"booking_id"`
	RoomID           string        `json:"room_id"`
	ConfirmationCode string        `json:"confirmation_code"`
	GuestEmail       string        `json:"guest_email"`
	CheckIn          calendar.Date `json:"check_in"`
	CheckOut         calendar.Date `json:"check_out"`
	TotalGuests      int           `json:"total_guests"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

func newEvent(b *Booking) Event {
	return Event{
		BookingID:        b.ID,
		RoomID:           b.RoomID,
		ConfirmationCode: b.ConfirmationCode,
		GuestEmail:       b.GuestEmail,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		TotalGuests:      b.TotalGuests,
		OccurredAt:       time.Now().UTC(),
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
