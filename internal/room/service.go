package room

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/storage"
)

// PhotoStore keeps room photos and their thumbnails outside the database.
type PhotoStore interface {
	Save(ctx context.Context, content []byte) (*storage.Photo, error)
	Open(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, paths ...string)
}

type CreateRequest struct {
	RoomType string
	Price    decimal.Decimal
	Photo    []byte // optional
}

// UpdateRequest changes room attributes only. Existing bookings are never touched.
type UpdateRequest struct {
	RoomType *string
	Price    *decimal.Decimal
	Photo    []byte // replaces the current photo when non-empty
}

type AvailabilityQuery struct {
	CheckIn  calendar.Date
	CheckOut calendar.Date
	RoomType string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Room, error)
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	ListTypes(ctx context.Context) ([]string, error)
	ListAvailable(ctx context.Context, q AvailabilityQuery) ([]*Room, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Room, error)
	// Delete is a no-op when the room does not exist.
	Delete(ctx context.Context, id string) error
	Photo(ctx context.Context, id string) ([]byte, error)
	Thumbnail(ctx context.Context, id string) ([]byte, error)
}

type service struct {
	repo   Repository
	photos PhotoStore
}

func NewService(repo Repository, photos PhotoStore) Service {
	return &service{
		repo:   repo,
		photos: photos,
	}
}

func validateAttributes(roomType string, price decimal.Decimal) error {
	if strings.TrimSpace(roomType) == "" {
		return ErrEmptyRoomType
	}
	if price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

func (s *service) savePhoto(ctx context.Context, content []byte) (*storage.Photo, error) {
	photo, err := s.photos.Save(ctx, content)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return nil, ErrInvalidPhoto
		}
		return nil, err
	}
	return photo, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Room, error) {
	roomType := strings.TrimSpace(req.RoomType)
	if err := validateAttributes(roomType, req.Price); err != nil {
		return nil, err
	}

	room := &Room{
		RoomType: roomType,
		Price:    req.Price,
	}

	if len(req.Photo) > 0 {
		photo, err := s.savePhoto(ctx, req.Photo)
		if err != nil {
			return nil, err
		}
		room.PhotoPath = photo.Path
		room.ThumbnailPath = photo.ThumbnailPath
	}

	if err := s.repo.Create(ctx, room); err != nil {
		s.photos.Delete(ctx, room.PhotoPath, room.ThumbnailPath)
		return nil, err
	}
	return room, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListTypes(ctx context.Context) ([]string, error) {
	return s.repo.ListTypes(ctx)
}

func (s *service) ListAvailable(ctx context.Context, q AvailabilityQuery) ([]*Room, error) {
	if q.CheckIn.IsZero() || q.CheckOut.IsZero() || !q.CheckIn.Before(q.CheckOut) {
		return nil, ErrInvalidDateRange
	}
	return s.repo.ListAvailable(ctx, q.CheckIn, q.CheckOut, strings.TrimSpace(q.RoomType))
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Room, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomType != nil {
		room.RoomType = strings.TrimSpace(*req.RoomType)
	}
	if req.Price != nil {
		room.Price = *req.Price
	}
	if err := validateAttributes(room.RoomType, room.Price); err != nil {
		return nil, err
	}

	oldPhoto, oldThumb := room.PhotoPath, room.ThumbnailPath
	replaced := false
	if len(req.Photo) > 0 {
		photo, err := s.savePhoto(ctx, req.Photo)
		if err != nil {
			return nil, err
		}
		room.PhotoPath = photo.Path
		room.ThumbnailPath = photo.ThumbnailPath
		replaced = true
	}

	if err := s.repo.Update(ctx, room); err != nil {
		if replaced {
			s.photos.Delete(ctx, room.PhotoPath, room.ThumbnailPath)
		}
		return nil, err
	}

	if replaced {
		s.photos.Delete(ctx, oldPhoto, oldThumb)
	}
	return room, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	s.photos.Delete(ctx, room.PhotoPath, room.ThumbnailPath)
	logrus.WithField("room_id", id).Info("room deleted")
	return nil
}

func (s *service) Photo(ctx context.Context, id string) ([]byte, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, room.PhotoPath)
}

func (s *service) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, room.ThumbnailPath)
}

func (s *service) open(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoPhoto
	}
	data, err := s.photos.Open(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoPhoto
		}
		return nil, err
	}
	return data, nil
}
