package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process memory. Each room has its own
// lock, created on first use; mu only guards the maps and is never held
// while waiting for a room lock.
type MemoryRepository struct {
	mu       sync.Mutex
	roomMu   map[string]*sync.Mutex
	bookings map[string]*Booking // by id
	byCode   map[string]string   // code -> booking id; "" while a transaction holds the code
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		roomMu:   make(map[string]*sync.Mutex),
		bookings: make(map[string]*Booking),
		byCode:   make(map[string]string),
	}
}

func (r *MemoryRepository) roomLock(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.roomMu[roomID]
	if !ok {
		l = &sync.Mutex{}
		r.roomMu[roomID] = l
	}
	return l
}

func (r *MemoryRepository) InRoomTx(ctx context.Context, roomID string, fn func(tx Tx) error) error {
	l := r.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{repo: r, roomID: roomID, deleted: make(map[string]bool)}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryRepository) GetByConfirmationCode(_ context.Context, code string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.byCode[code]
	if id == "" {
		return nil, ErrNotFound
	}
	cp := *r.bookings[id]
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*Booking
	for _, b := range r.bookings {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.GuestEmail != "" && b.GuestEmail != filter.GuestEmail {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sortBookings(result)
	return result, nil
}

func sortBookings(bs []*Booking) {
	sort.Slice(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		if c := a.CheckIn.Compare(b.CheckIn); c != 0 {
			return c < 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// memoryTx stages writes until the room transaction commits.
type memoryTx struct {
	repo    *MemoryRepository
	roomID  string
	created []*Booking
	deleted map[string]bool
}

func (t *memoryTx) ListByRoom(_ context.Context, roomID string) ([]*Booking, error) {
	t.repo.mu.Lock()
	var result []*Booking
	for _, b := range t.repo.bookings {
		if b.RoomID == roomID && !t.deleted[b.ID] {
			cp := *b
			result = append(result, &cp)
		}
	}
	t.repo.mu.Unlock()

	for _, b := range t.created {
		if b.RoomID == roomID && !t.deleted[b.ID] {
			cp := *b
			result = append(result, &cp)
		}
	}
	sortBookings(result)
	return result, nil
}

func (t *memoryTx) Create(_ context.Context, b *Booking) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	if _, taken := t.repo.byCode[b.ConfirmationCode]; taken {
		return ErrDuplicateCode
	}
	// Reserve the code now so concurrent transactions on other rooms cannot take it.
	t.repo.byCode[b.ConfirmationCode] = ""

	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	cp := *b
	t.created = append(t.created, &cp)
	return nil
}

func (t *memoryTx) Delete(_ context.Context, id string) error {
	if t.deleted[id] {
		return ErrNotFound
	}
	for _, b := range t.created {
		if b.ID == id {
			t.deleted[id] = true
			return nil
		}
	}

	t.repo.mu.Lock()
	b, ok := t.repo.bookings[id]
	t.repo.mu.Unlock()
	if !ok || b.RoomID != t.roomID {
		return ErrNotFound
	}
	t.deleted[id] = true
	return nil
}

func (t *memoryTx) commit() {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, b := range t.created {
		if t.deleted[b.ID] {
			delete(t.repo.byCode, b.ConfirmationCode)
			continue
		}
		t.repo.bookings[b.ID] = b
		t.repo.byCode[b.ConfirmationCode] = b.ID
	}
	for id := range t.deleted {
		if b, ok := t.repo.bookings[id]; ok && b.RoomID == t.roomID {
			delete(t.repo.byCode, b.ConfirmationCode)
			delete(t.repo.bookings, id)
		}
	}
}

func (t *memoryTx) rollback() {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, b := range t.created {
		delete(t.repo.byCode, b.ConfirmationCode)
	}
}
