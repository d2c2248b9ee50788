package booking

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
)

type fakeRooms map[string]*room.Room

func (f fakeRooms) GetByID(_ context.Context, id string) (*room.Room, error) {
	r, ok := f[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return r, nil
}

func (f fakeRooms) add(roomType string, price int64) string {
	id := uuid.NewString()
	f[id] = &room.Room{ID: id, RoomType: roomType, Price: decimal.NewFromInt(price)}
	return id
}

type recordedEvent struct {
	Type  string
	Event Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Event: payload.(Event)})
	return p.err
}

// sequenceCodes replays fixed codes, then falls back to random ones.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (s *sequenceCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return NewCodeGenerator().Generate()
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

type fixture struct {
	svc    Service
	repo   *MemoryRepository
	rooms  fakeRooms
	events *fakePublisher
}

func newFixture(codes CodeGenerator) *fixture {
	f := &fixture{
		repo:   NewMemoryRepository(),
		rooms:  fakeRooms{},
		events: &fakePublisher{},
	}
	f.svc = NewService(f.repo, f.rooms, codes, f.events)
	return f
}

func guest(in, out int) ReserveRequest {
	return ReserveRequest{
		CheckIn:       day(in),
		CheckOut:      day(out),
		GuestFullName: "Ada Lovelace",
		GuestEmail:    "ada@example.com",
		Adults:        2,
		Children:      1,
	}
}

func TestReserveAndFindByCode(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Double", 120)

	code, err := f.svc.Reserve(ctx, roomID, guest(10, 12))
	require.NoError(t, err)
	assert.True(t, IsConfirmationCode(code))

	b, err := f.svc.FindByConfirmationCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, roomID, b.RoomID)
	assert.Equal(t, "Double", b.RoomType)
	assert.Equal(t, day(10), b.CheckIn)
	assert.Equal(t, day(12), b.CheckOut)
	assert.Equal(t, "Ada Lovelace", b.GuestFullName)
	assert.Equal(t, 3, b.TotalGuests)
	assert.NotEmpty(t, b.ID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventReserved, f.events.events[0].Type)
	assert.Equal(t, code, f.events.events[0].Event.ConfirmationCode)
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Single", 80)

	mutate := func(fn func(*ReserveRequest)) ReserveRequest {
		req := guest(10, 12)
		fn(&req)
		return req
	}

	tests := []struct {
		name    string
		roomID  string
		req     ReserveRequest
		wantErr error
	}{
		{"same day", roomID, guest(10, 10), ErrInvalidDateRange},
		{"reversed", roomID, guest(12, 10), ErrInvalidDateRange},
		{"missing dates", roomID, mutate(func(r *ReserveRequest) { r.CheckIn = calendar.Date{} }), ErrInvalidDateRange},
		{"blank name", roomID, mutate(func(r *ReserveRequest) { r.GuestFullName = "  " }), ErrEmptyGuestName},
		{"bad email", roomID, mutate(func(r *ReserveRequest) { r.GuestEmail = "not-an-email" }), ErrInvalidGuestEmail},
		{"no adults", roomID, mutate(func(r *ReserveRequest) { r.Adults = 0 }), ErrInvalidAdults},
		{"negative children", roomID, mutate(func(r *ReserveRequest) { r.Children = -1 }), ErrInvalidChildren},
		{"unknown room", uuid.NewString(), guest(10, 12), ErrRoomNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Reserve(ctx, tt.roomID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected reservations must not persist anything")
}

func TestReserveErrorKinds(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Single", 80)

	_, err := f.svc.Reserve(ctx, roomID, guest(12, 10))
	assert.Equal(t, http.StatusBadRequest, apperror.CodeOf(err))

	_, err = f.svc.Reserve(ctx, uuid.NewString(), guest(10, 12))
	assert.Equal(t, http.StatusNotFound, apperror.CodeOf(err))

	_, err = f.svc.Reserve(ctx, roomID, guest(10, 12))
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, roomID, guest(11, 13))
	assert.Equal(t, http.StatusConflict, apperror.CodeOf(err))
}

func TestReserveBackToBackAndOverlap(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Suite", 300)
	otherRoom := f.rooms.add("Suite", 300)

	_, err := f.svc.Reserve(ctx, roomID, guest(10, 12))
	require.NoError(t, err)

	_, err = f.svc.Reserve(ctx, roomID, guest(12, 14))
	assert.NoError(t, err, "check-in on the previous guest's check-out day is allowed")

	_, err = f.svc.Reserve(ctx, roomID, guest(8, 10))
	assert.NoError(t, err)

	_, err = f.svc.Reserve(ctx, roomID, guest(11, 13))
	assert.ErrorIs(t, err, ErrRoomUnavailable)

	_, err = f.svc.Reserve(ctx, otherRoom, guest(11, 13))
	assert.NoError(t, err, "other rooms are unaffected")

	bookings, err := f.svc.ListByRoom(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, day(8), bookings[0].CheckIn)
	assert.Equal(t, day(10), bookings[1].CheckIn)
	assert.Equal(t, day(12), bookings[2].CheckIn)
}

func TestReserveIgnoresCallerTotals(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Family", 200)

	req := guest(1, 3)
	req.Adults, req.Children = 2, 2
	code, err := f.svc.Reserve(ctx, roomID, req)
	require.NoError(t, err)

	b, err := f.svc.FindByConfirmationCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 4, b.TotalGuests)
}

func TestReserveRetriesCodeCollision(t *testing.T) {
	codes := &sequenceCodes{codes: []string{"1111111111", "1111111111", "2222222222"}}
	f := newFixture(codes)
	ctx := context.Background()
	roomID := f.rooms.add("Single", 80)

	first, err := f.svc.Reserve(ctx, roomID, guest(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "1111111111", first)

	second, err := f.svc.Reserve(ctx, roomID, guest(2, 3))
	require.NoError(t, err)
	assert.Equal(t, "2222222222", second, "a colliding code is replaced, never overwritten")

	b, err := f.svc.FindByConfirmationCode(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, day(1), b.CheckIn)
}

func TestReserveGivesUpAfterMaxCodeAttempts(t *testing.T) {
	dup := make([]string, MaxCodeAttempts+1)
	for i := range dup {
		dup[i] = "5555555555"
	}
	f := newFixture(&sequenceCodes{codes: dup})
	ctx := context.Background()
	roomID := f.rooms.add("Single", 80)

	_, err := f.svc.Reserve(ctx, roomID, guest(1, 2))
	require.NoError(t, err)

	_, err = f.svc.Reserve(ctx, roomID, guest(3, 4))
	assert.ErrorIs(t, err, ErrCodeExhausted)
	assert.Equal(t, http.StatusInternalServerError, apperror.CodeOf(err))

	bookings, err := f.svc.ListByRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestReserveCancelledContext(t *testing.T) {
	f := newFixture(nil)
	roomID := f.rooms.add("Single", 80)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Reserve(ctx, roomID, guest(1, 2))
	assert.ErrorIs(t, err, context.Canceled)

	all, err := f.svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReservePublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(nil)
	f.events.err = errors.New("broker down")
	roomID := f.rooms.add("Single", 80)

	code, err := f.svc.Reserve(context.Background(), roomID, guest(1, 2))
	require.NoError(t, err)
	assert.NotEmpty(t, code)
}

func TestConcurrentReservationsSameRoom(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Suite", 300)

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Reserve(ctx, roomID, guest(10, 15))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrRoomUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestConcurrentReservationsDifferentRooms(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	const rooms = 16
	ids := make([]string, rooms)
	for i := range ids {
		ids[i] = f.rooms.add("Single", 80)
	}

	var wg sync.WaitGroup
	errs := make([]error, rooms)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Reserve(ctx, ids[i], guest(10, 15))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, rooms)
}

func TestCancel(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	roomID := f.rooms.add("Single", 80)

	code, err := f.svc.Reserve(ctx, roomID, guest(10, 12))
	require.NoError(t, err)
	b, err := f.svc.FindByConfirmationCode(ctx, code)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, b.ID))

	_, err = f.svc.FindByConfirmationCode(ctx, code)
	assert.ErrorIs(t, err, ErrNotFound)

	// The freed dates can be booked again.
	_, err = f.svc.Reserve(ctx, roomID, guest(10, 12))
	assert.NoError(t, err)

	// Cancelling twice, or an unknown id, is a silent no-op.
	assert.NoError(t, f.svc.Cancel(ctx, b.ID))
	assert.NoError(t, f.svc.Cancel(ctx, uuid.NewString()))

	var types []string
	for _, e := range f.events.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{EventReserved, EventCancelled, EventReserved}, types)
}

func TestQueries(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	r1 := f.rooms.add("Single", 80)
	r2 := f.rooms.add("Double", 120)

	ada := guest(5, 7)
	bob := guest(1, 3)
	bob.GuestEmail = "bob@example.com"
	upper := guest(10, 11)
	upper.GuestEmail = "ADA@example.com"

	_, err := f.svc.Reserve(ctx, r1, ada)
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, r2, bob)
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, r2, upper)
	require.NoError(t, err)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, day(1), all[0].CheckIn, "ordered by check-in")

	byEmail, err := f.svc.ListByGuestEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1, "email match is exact and case-sensitive")
	assert.Equal(t, r1, byEmail[0].RoomID)

	none, err := f.svc.ListByGuestEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)

	byRoom, err := f.svc.ListByRoom(ctx, r2)
	require.NoError(t, err)
	assert.Len(t, byRoom, 2)

	_, err = f.svc.FindByConfirmationCode(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.FindByConfirmationCode(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
