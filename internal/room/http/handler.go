package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

// MaxPhotoBytes caps uploaded room photos.
const MaxPhotoBytes = 10 << 20

var errPhotoTooLarge = errors.New("photo exceeds 10 MiB")

// BookingLister supplies the bookings embedded in room responses.
type BookingLister interface {
	ListByRoom(ctx context.Context, roomID string) ([]*booking.Booking, error)
}

type RoomHandler struct {
	service  room.Service
	bookings BookingLister
}

func NewHandler(service room.Service, bookings BookingLister) *RoomHandler {
	return &RoomHandler{
		service:  service,
		bookings: bookings,
	}
}

func (h *RoomHandler) respond(c *gin.Context, r *room.Room) (RoomResponse, error) {
	bookings, err := h.bookings.ListByRoom(c.Request.Context(), r.ID)
	if err != nil {
		return RoomResponse{}, err
	}
	return NewRoomResponse(r, bookings), nil
}

func (h *RoomHandler) respondAll(c *gin.Context, rooms []*room.Room) ([]RoomResponse, error) {
	items := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		resp, err := h.respond(c, r)
		if err != nil {
			return nil, err
		}
		items[i] = resp
	}
	return items, nil
}

// List retrieves a paginated list of rooms, optionally filtered by type.
func (h *RoomHandler) List(c *gin.Context) {
	var req ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	rooms, total, err := h.service.List(c.Request.Context(), room.Filter{
		RoomType:  req.RoomType,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.respondAll(c, rooms)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

// ListTypes returns the distinct room types.
func (h *RoomHandler) ListTypes(c *gin.Context) {
	types, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if types == nil {
		types = []string{}
	}
	c.JSON(http.StatusOK, types)
}

// ListAvailable returns rooms free for the whole requested stay.
// It answers 204 when nothing is free.
func (h *RoomHandler) ListAvailable(c *gin.Context) {
	var req AvailableRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	q, err := req.Parse()
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	rooms, err := h.service.ListAvailable(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(rooms) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	items, err := h.respondAll(c, rooms)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *RoomHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.respond(c, r)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create adds a room from a multipart form: room_type, room_price and an optional photo.
// Access Control: ROLE_ADMIN only.
func (h *RoomHandler) Create(c *gin.Context) {
	roomType := c.PostForm("room_type")
	price, err := decimal.NewFromString(c.PostForm("room_price"))
	if err != nil {
		response.BadRequest(c, "invalid room_price", err)
		return
	}
	photo, err := readPhoto(c)
	if err != nil {
		response.BadRequest(c, "invalid photo", err)
		return
	}

	r, err := h.service.Create(c.Request.Context(), room.CreateRequest{
		RoomType: roomType,
		Price:    price,
		Photo:    photo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewRoomResponse(r, nil))
}

// Update applies a partial multipart update. Bookings are left untouched.
// Access Control: ROLE_ADMIN only.
func (h *RoomHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var req room.UpdateRequest
	if v, ok := c.GetPostForm("room_type"); ok {
		req.RoomType = &v
	}
	if v, ok := c.GetPostForm("room_price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			response.BadRequest(c, "invalid room_price", err)
			return
		}
		req.Price = &price
	}
	photo, err := readPhoto(c)
	if err != nil {
		response.BadRequest(c, "invalid photo", err)
		return
	}
	req.Photo = photo

	r, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp, err := h.respond(c, r)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a room. Unknown rooms are not an error.
// Access Control: ROLE_ADMIN only.
func (h *RoomHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) Photo(c *gin.Context) {
	h.serveImage(c, h.service.Photo)
}

func (h *RoomHandler) Thumbnail(c *gin.Context) {
	h.serveImage(c, h.service.Thumbnail)
}

func (h *RoomHandler) serveImage(c *gin.Context, load func(ctx context.Context, id string) ([]byte, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	data, err := load(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// readPhoto returns the uploaded "photo" form file, or nil when none was sent.
func readPhoto(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if fh.Size > MaxPhotoBytes {
		return nil, errPhotoTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxPhotoBytes {
		return nil, errPhotoTooLarge
	}
	return data, nil
}
