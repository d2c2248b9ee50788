package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/calendar"
)

type Repository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	ListTypes(ctx context.Context) ([]string, error)
	// ListAvailable returns rooms of roomType (any type when empty) that have
	// no booking overlapping [checkIn, checkOut).
	ListAvailable(ctx context.Context, checkIn, checkOut calendar.Date, roomType string) ([]*Room, error)
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Prices travel as text so NUMERIC precision survives the round trip.
var roomColumns = []string{
	"r.id", "r.room_type", "r.room_price::text", "coalesce(r.photo_path, '')", "coalesce(r.thumbnail_path, '')", "r.created_at",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner, extra ...any) (*Room, error) {
	var (
		r     Room
		price string
	)
	dest := append([]any{&r.ID, &r.RoomType, &price, &r.PhotoPath, &r.ThumbnailPath, &r.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse room price %q: %w", price, err)
	}
	r.Price = p
	return &r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *pgxRepository) Create(ctx context.Context, room *Room) error {
	query, args, err := psql.Insert("public.rooms").
		Columns("room_type", "room_price", "photo_path", "thumbnail_path").
		Values(room.RoomType, squirrel.Expr("?::numeric", room.Price.String()), nullable(room.PhotoPath), nullable(room.ThumbnailPath)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create room query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&room.ID, &room.CreatedAt); err != nil {
		return fmt.Errorf("create room failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	query, args, err := psql.Select(roomColumns...).
		From("public.rooms r").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}

	room, err := scanRoom(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return room, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	query := psql.Select(append(roomColumns, "count(*) OVER() AS total_count")...).
		From("public.rooms r")

	if filter.RoomType != "" {
		query = query.Where(squirrel.Eq{"r.room_type": filter.RoomType})
	}

	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("r.created_at " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rooms failed: %w", err)
	}
	defer rows.Close()

	var (
		result []*Room
		total  int
	)
	for rows.Next() {
		room, err := scanRoom(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan room failed: %w", err)
		}
		result = append(result, room)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rooms failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) ListTypes(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT room_type FROM public.rooms ORDER BY room_type`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list room types failed: %w", err)
	}
	types, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan room types failed: %w", err)
	}
	return types, nil
}

func (r *pgxRepository) ListAvailable(ctx context.Context, checkIn, checkOut calendar.Date, roomType string) ([]*Room, error) {
	// Same half-open rule as the booking engine: (NewIn < ExistingOut) AND (NewOut > ExistingIn)
	overlap := psql.Select("1").
		From("public.bookings b").
		Where("b.room_id = r.id").
		Where(squirrel.Lt{"b.check_in": checkOut.Time()}).
		Where(squirrel.Gt{"b.check_out": checkIn.Time()})

	query := psql.Select(roomColumns...).
		From("public.rooms r").
		Where(squirrel.Expr("NOT EXISTS (?)", overlap)).
		OrderBy("r.room_type", "r.created_at")

	if roomType != "" {
		query = query.Where(squirrel.Eq{"r.room_type": roomType})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build available rooms query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list available rooms failed: %w", err)
	}
	defer rows.Close()

	var result []*Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room failed: %w", err)
		}
		result = append(result, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available rooms failed: %w", err)
	}
	return result, nil
}

func (r *pgxRepository) Update(ctx context.Context, room *Room) error {
	query, args, err := psql.Update("public.rooms").
		Set("room_type", room.RoomType).
		Set("room_price", squirrel.Expr("?::numeric", room.Price.String())).
		Set("photo_path", nullable(room.PhotoPath)).
		Set("thumbnail_path", nullable(room.ThumbnailPath)).
		Where(squirrel.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.rooms WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgerrcode.ForeignKeyViolation || pgErr.Code == pgerrcode.RestrictViolation) {
			return ErrHasBookings
		}
		return fmt.Errorf("delete room failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isInvalidID reports a malformed uuid literal, which can never name a room.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
