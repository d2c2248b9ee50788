package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

// MaxCodeAttempts bounds how many confirmation codes Reserve tries before giving up.
const MaxCodeAttempts = 5

const publishTimeout = 5 * time.Second

// RoomDirectory resolves rooms by ID.
type RoomDirectory interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
}

type Service interface {
	// Reserve books roomID for the requested stay and returns the confirmation code.
	Reserve(ctx context.Context, roomID string, req ReserveRequest) (string, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	ListByGuestEmail(ctx context.Context, email string) ([]*Booking, error)
	ListByRoom(ctx context.Context, roomID string) ([]*Booking, error)
	FindByConfirmationCode(ctx context.Context, code string) (*Booking, error)
	// Cancel removes the booking. Unknown IDs are a silent no-op.
	Cancel(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	rooms    RoomDirectory
	codes    CodeGenerator
	events   EventPublisher
	validate *validator.Validate
}

// NewService wires the reservation engine. codes and events may be nil:
// the default generator is used and events are dropped.
func NewService(repo Repository, rooms RoomDirectory, codes CodeGenerator, events EventPublisher) Service {
	if codes == nil {
		codes = NewCodeGenerator()
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &service{
		repo:     repo,
		rooms:    rooms,
		codes:    codes,
		events:   events,
		validate: validator.New(),
	}
}

func (s *service) validateGuest(req ReserveRequest) error {
	if strings.TrimSpace(req.GuestFullName) == "" {
		return ErrEmptyGuestName
	}
	if err := s.validate.Var(strings.TrimSpace(req.GuestEmail), "required,email"); err != nil {
		return ErrInvalidGuestEmail
	}
	if req.Adults < 1 {
		return ErrInvalidAdults
	}
	if req.Children < 0 {
		return ErrInvalidChildren
	}
	return nil
}

func (s *service) Reserve(ctx context.Context, roomID string, req ReserveRequest) (string, error) {
	stay := DateRange{CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	if !stay.Valid() {
		return "", ErrInvalidDateRange
	}
	if err := s.validateGuest(req); err != nil {
		return "", err
	}

	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return "", ErrRoomNotFound
		}
		return "", err
	}

	b := &Booking{
		RoomID:        rm.ID,
		RoomType:      rm.RoomType,
		RoomPrice:     rm.Price,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		GuestFullName: strings.TrimSpace(req.GuestFullName),
		GuestEmail:    strings.TrimSpace(req.GuestEmail),
	}
	b.SetGuests(req.Adults, req.Children)

	err = s.repo.InRoomTx(ctx, rm.ID, func(tx Tx) error {
		existing, err := tx.ListByRoom(ctx, rm.ID)
		if err != nil {
			return err
		}
		if !IsAvailable(stay, ranges(existing)) {
			return ErrRoomUnavailable
		}
		return s.create(ctx, tx, b)
	})
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"check_in":   b.CheckIn.String(),
		"check_out":  b.CheckOut.String(),
	}).Info("booking reserved")

	s.publish(ctx, EventReserved, b)
	return b.ConfirmationCode, nil
}

// create inserts b, drawing a fresh confirmation code on every collision.
func (s *service) create(ctx context.Context, tx Tx, b *Booking) error {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reservation aborted: %w", err)
		}

		code, err := s.codes.Generate()
		if err != nil {
			return apperror.Internal(err)
		}
		b.ConfirmationCode = code

		err = tx.Create(ctx, b)
		if errors.Is(err, ErrDuplicateCode) {
			logrus.WithField("attempt", attempt).Warn("confirmation code collision, retrying")
			continue
		}
		return err
	}
	return apperror.Internal(ErrCodeExhausted)
}

func (s *service) publish(ctx context.Context, eventType string, b *Booking) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.events.Publish(pctx, eventType, newEvent(b)); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":      eventType,
			"booking_id": b.ID,
		}).Warn("failed to publish booking event")
	}
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListAll(ctx context.Context) ([]*Booking, error) {
	return s.repo.List(ctx, Filter{})
}

func (s *service) ListByGuestEmail(ctx context.Context, email string) ([]*Booking, error) {
	if email == "" {
		return nil, nil
	}
	return s.repo.List(ctx, Filter{GuestEmail: email})
}

func (s *service) ListByRoom(ctx context.Context, roomID string) ([]*Booking, error) {
	if roomID == "" {
		return nil, nil
	}
	return s.repo.List(ctx, Filter{RoomID: roomID})
}

func (s *service) FindByConfirmationCode(ctx context.Context, code string) (*Booking, error) {
	if !IsConfirmationCode(code) {
		return nil, ErrNotFound
	}
	return s.repo.GetByConfirmationCode(ctx, code)
}

func (s *service) Cancel(ctx context.Context, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	removed := false
	err = s.repo.InRoomTx(ctx, b.RoomID, func(tx Tx) error {
		if err := tx.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}

	if removed {
		logrus.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"room_id":    b.RoomID,
		}).Info("booking cancelled")
		s.publish(ctx, EventCancelled, b)
	}
	return nil
}
