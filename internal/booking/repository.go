package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
)

// Repository persists bookings. Writes go through InRoomTx so that all
// changes to one room's bookings are serialized.
type Repository interface {
	// InRoomTx runs fn while holding the room's lock. fn's writes are
	// committed only if it returns nil. Returns ErrRoomNotFound if the room does not exist.
	InRoomTx(ctx context.Context, roomID string, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*Booking, error)
	// List returns matching bookings ordered by check-in date.
	List(ctx context.Context, filter Filter) ([]*Booking, error)
}

// Tx is the view of a locked room inside InRoomTx.
type Tx interface {
	ListByRoom(ctx context.Context, roomID string) ([]*Booking, error)
	// Create assigns ID and CreatedAt. Returns ErrDuplicateCode if the confirmation code is taken.
	Create(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id string) error
}

// Constraint names from the schema, used to classify violations.
const (
	constraintUniqueCode = "bookings_confirmation_code_key"
	constraintNoOverlap  = "bookings_no_overlap"
)

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.room_id", "r.room_type", "r.room_price::text",
	"b.check_in", "b.check_out", "b.guest_full_name", "b.guest_email",
	"b.adults", "b.children", "b.total_guests", "b.confirmation_code", "b.created_at",
}

func selectBookings() squirrel.SelectBuilder {
	return psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.rooms r ON b.room_id = r.id")
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b                 Booking
		price             string
		checkIn, checkOut time.Time
	)
	if err := row.Scan(
		&b.ID, &b.RoomID, &b.RoomType, &price,
		&checkIn, &checkOut, &b.GuestFullName, &b.GuestEmail,
		&b.Adults, &b.Children, &b.TotalGuests, &b.ConfirmationCode, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse room price %q: %w", price, err)
	}
	b.RoomPrice = p
	b.CheckIn = calendar.FromTime(checkIn)
	b.CheckOut = calendar.FromTime(checkOut)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*Booking, error) {
	defer rows.Close()

	var result []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return result, nil
}

func (r *pgxRepository) InRoomTx(ctx context.Context, roomID string, fn func(tx Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin room transaction failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row lock on the room serializes every writer of this room's bookings.
	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM public.rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, pgerrcode.InvalidTextRepresentation) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("lock room failed: %w", err)
	}

	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit room transaction failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, pgerrcode.InvalidTextRepresentation) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) GetByConfirmationCode(ctx context.Context, code string) (*Booking, error) {
	query, args, err := selectBookings().Where(squirrel.Eq{"b.confirmation_code": code}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking by code query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking by code failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	query := selectBookings()
	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"b.room_id": filter.RoomID})
	}
	if filter.GuestEmail != "" {
		query = query.Where(squirrel.Eq{"b.guest_email": filter.GuestEmail})
	}
	query = query.OrderBy("b.check_in", "b.created_at", "b.id")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	return collectBookings(rows)
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) ListByRoom(ctx context.Context, roomID string) ([]*Booking, error) {
	sql, args, err := selectBookings().
		Where(squirrel.Eq{"b.room_id": roomID}).
		OrderBy("b.check_in").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list room bookings query failed: %w", err)
	}

	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list room bookings failed: %w", err)
	}
	return collectBookings(rows)
}

func (t *pgxTx) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns("room_id", "check_in", "check_out", "guest_full_name", "guest_email",
			"adults", "children", "total_guests", "confirmation_code").
		Values(b.RoomID, b.CheckIn.Time(), b.CheckOut.Time(), b.GuestFullName, b.GuestEmail,
			b.Adults, b.Children, b.TotalGuests, b.ConfirmationCode).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	// A savepoint keeps the outer transaction usable after a code collision.
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint failed: %w", err)
	}

	if err := sp.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		_ = sp.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraintUniqueCode:
				return ErrDuplicateCode
			case pgErr.Code == pgerrcode.ExclusionViolation && pgErr.ConstraintName == constraintNoOverlap:
				return ErrRoomUnavailable
			}
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint failed: %w", err)
	}
	return nil
}

func (t *pgxTx) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.bookings WHERE id = $1`
	ct, err := t.tx.Exec(ctx, query, id)
	if err != nil {
		if isPgError(err, pgerrcode.InvalidTextRepresentation) {
			return ErrNotFound
		}
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
