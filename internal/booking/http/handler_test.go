package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

type fakeRooms map[string]*room.Room

func (f fakeRooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, room.ErrNotFound
}

// fakeRoles grants ROLE_ADMIN to the listed user IDs.
type fakeRoles map[string]bool

func (f fakeRoles) HasRole(_ context.Context, userID, role string) (bool, error) {
	return role == auth.RoleAdmin && f[userID], nil
}

type testEnv struct {
	router   *gin.Engine
	svc      booking.Service
	jwt      *auth.JWTManager
	roomID   string
	admins   fakeRoles
	reserves atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	roomID := uuid.NewString()
	rooms := fakeRooms{roomID: {ID: roomID, RoomType: "Deluxe", Price: decimal.RequireFromString("199.5")}}
	e := &testEnv{
		svc:    booking.NewService(booking.NewMemoryRepository(), rooms, nil, nil),
		jwt:    auth.NewJWTManager("test-secret", time.Hour),
		roomID: roomID,
		admins: fakeRoles{},
	}

	adminOnly := func(c *gin.Context) {
		if ok, _ := auth.IsAdmin(c, e.admins); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
	countReserves := func(c *gin.Context) {
		e.reserves.Add(1)
		c.Next()
	}

	e.router = gin.New()
	RegisterRoutes(e.router.Group("/v1"), NewHandler(e.svc, e.admins), auth.AuthRequired(e.jwt), adminOnly, countReserves)
	return e
}

func (e *testEnv) token(t *testing.T, email string, admin bool) string {
	t.Helper()
	id := uuid.NewString()
	if admin {
		e.admins[id] = true
	}
	tok, err := e.jwt.GenerateAccessToken(id, email, nil)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func reserveJSON(checkIn, checkOut, email string) string {
	return `{"check_in":"` + checkIn + `","check_out":"` + checkOut + `",` +
		`"guest_full_name":"Ada Lovelace","guest_email":"` + email + `","adults":2,"children":1}`
}

func (e *testEnv) reserve(t *testing.T, checkIn, checkOut, email string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/v1/rooms/"+e.roomID+"/bookings", "", reserveJSON(checkIn, checkOut, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ConfirmationCode
}

func TestReserveAndLookup(t *testing.T) {
	e := newTestEnv(t)

	code := e.reserve(t, "2026-07-01", "2026-07-04", "ada@example.com")
	assert.True(t, booking.IsConfirmationCode(code))
	assert.Equal(t, int32(1), e.reserves.Load())

	w := e.do(http.MethodGet, "/v1/bookings/confirmation/"+code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, code, got.ConfirmationCode)
	assert.Equal(t, e.roomID, got.Room.ID)
	assert.Equal(t, "Deluxe", got.Room.RoomType)
	assert.Equal(t, "199.50", got.Room.RoomPrice)
	assert.Equal(t, "2026-07-01", got.CheckIn.String())
	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, 3, got.TotalGuests)

	w = e.do(http.MethodGet, "/v1/bookings/confirmation/0000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReserveIgnoresClientDerivedFields(t *testing.T) {
	e := newTestEnv(t)

	body := `{"check_in":"2026-07-01","check_out":"2026-07-02","guest_full_name":"Ada",` +
		`"guest_email":"ada@example.com","adults":1,"children":0,` +
		`"total_guests":99,"confirmation_code":"1234567890"}`
	w := e.do(http.MethodPost, "/v1/rooms/"+e.roomID+"/bookings", "", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	b, err := e.svc.FindByConfirmationCode(context.Background(), resp.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, 1, b.TotalGuests)
}

func TestReserveErrors(t *testing.T) {
	e := newTestEnv(t)
	e.reserve(t, "2026-07-10", "2026-07-15", "ada@example.com")

	tests := []struct {
		name   string
		roomID string
		body   string
		want   int
	}{
		{"overlap", e.roomID, reserveJSON("2026-07-12", "2026-07-20", "bob@example.com"), http.StatusConflict},
		{"reversed dates", e.roomID, reserveJSON("2026-08-05", "2026-08-01", "bob@example.com"), http.StatusBadRequest},
		{"same day", e.roomID, reserveJSON("2026-08-05", "2026-08-05", "bob@example.com"), http.StatusBadRequest},
		{"bad date", e.roomID, reserveJSON("2026-02-30", "2026-03-02", "bob@example.com"), http.StatusBadRequest},
		{"bad email", e.roomID, reserveJSON("2026-08-01", "2026-08-02", "bob"), http.StatusBadRequest},
		{"missing dates", e.roomID, `{"guest_full_name":"Bob","guest_email":"bob@example.com","adults":1}`, http.StatusBadRequest},
		{"no adults", e.roomID, `{"check_in":"2026-08-01","check_out":"2026-08-02","guest_full_name":"Bob","guest_email":"bob@example.com"}`, http.StatusBadRequest},
		{"unknown room", uuid.NewString(), reserveJSON("2026-08-01", "2026-08-02", "bob@example.com"), http.StatusNotFound},
		{"malformed room id", "42", reserveJSON("2026-08-01", "2026-08-02", "bob@example.com"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/v1/rooms/"+tt.roomID+"/bookings", "", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	// Back-to-back stays share the changeover day.
	e.reserve(t, "2026-07-15", "2026-07-18", "bob@example.com")
	e.reserve(t, "2026-07-08", "2026-07-10", "carol@example.com")
}

func TestConcurrentReservationsOneWinner(t *testing.T) {
	e := newTestEnv(t)

	const n = 20
	var (
		wg    sync.WaitGroup
		codes = make(chan int, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := e.do(http.MethodPost, "/v1/rooms/"+e.roomID+"/bookings", "", reserveJSON("2026-09-01", "2026-09-03", "x@example.com"))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for c := range codes {
		counts[c]++
	}
	assert.Equal(t, 1, counts[http.StatusCreated])
	assert.Equal(t, n-1, counts[http.StatusConflict])
}

func TestBookingAccessControl(t *testing.T) {
	e := newTestEnv(t)
	e.reserve(t, "2026-07-01", "2026-07-03", "ada@example.com")

	ada := e.token(t, "ada@example.com", false)
	bob := e.token(t, "bob@example.com", false)
	admin := e.token(t, "admin@example.com", true)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"all without token", "/v1/bookings", "", http.StatusUnauthorized},
		{"all as user", "/v1/bookings", ada, http.StatusForbidden},
		{"all as admin", "/v1/bookings", admin, http.StatusOK},
		{"room as user", "/v1/rooms/" + e.roomID + "/bookings", ada, http.StatusForbidden},
		{"room as admin", "/v1/rooms/" + e.roomID + "/bookings", admin, http.StatusOK},
		{"guest self", "/v1/bookings/guest/ada@example.com", ada, http.StatusOK},
		{"guest other", "/v1/bookings/guest/ada@example.com", bob, http.StatusForbidden},
		{"guest as admin", "/v1/bookings/guest/ada@example.com", admin, http.StatusOK},
		{"guest without token", "/v1/bookings/guest/ada@example.com", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestListByGuestEmailIsExact(t *testing.T) {
	e := newTestEnv(t)
	e.reserve(t, "2026-07-01", "2026-07-03", "ada@example.com")
	admin := e.token(t, "admin@example.com", true)

	var list response.ListResponse[BookingResponse]

	w := e.do(http.MethodGet, "/v1/bookings/guest/ada@example.com", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = e.do(http.MethodGet, "/v1/bookings/guest/ADA@example.com", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Items)
}

func TestCancel(t *testing.T) {
	e := newTestEnv(t)
	code := e.reserve(t, "2026-07-01", "2026-07-03", "ada@example.com")
	b, err := e.svc.FindByConfirmationCode(context.Background(), code)
	require.NoError(t, err)

	ada := e.token(t, "ada@example.com", false)
	bob := e.token(t, "bob@example.com", false)
	path := "/v1/bookings/" + b.ID

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodDelete, path, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, ada, nil).Code)

	_, err = e.svc.FindByConfirmationCode(context.Background(), code)
	assert.ErrorIs(t, err, booking.ErrNotFound)

	// Cancelling again, or cancelling something that never existed, is still 204.
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, path, bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/v1/bookings/"+uuid.NewString(), bob, nil).Code)

	// The freed dates can be booked again.
	e.reserve(t, "2026-07-01", "2026-07-03", "bob@example.com")
}
