package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing roles and role membership.
type Repository interface {
	List(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id string) (*Role, error)
	Create(ctx context.Context, r *Role) error
	// Delete removes the role together with all of its memberships.
	Delete(ctx context.Context, id string) error
	// Membership methods
	AddUser(ctx context.Context, roleID, userID string) error
	RemoveUser(ctx context.Context, roleID, userID string) error
	RemoveAllUsers(ctx context.Context, roleID string) (int64, error)
	ListMembers(ctx context.Context, roleID string) ([]*Member, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new role repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func roleQuery() squirrel.SelectBuilder {
	return psql.Select(
		"r.id", "r.name", "r.created_at",
		"(SELECT count(*) FROM public.user_roles ur WHERE ur.role_id = r.id) AS user_count",
	).From("public.roles r")
}

func scanRole(row pgx.Row) (*Role, error) {
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UserCount); err != nil {
		return nil, err
	}
	return &r, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func (r *pgxRepository) List(ctx context.Context) ([]*Role, error) {
	query, args, err := roleQuery().OrderBy("r.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role failed: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles failed: %w", err)
	}
	return roles, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	query, args, err := roleQuery().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get role query failed: %w", err)
	}

	role, err := scanRole(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, pgerrcode.InvalidTextRepresentation) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role failed: %w", err)
	}
	return role, nil
}

func (r *pgxRepository) Create(ctx context.Context, role *Role) error {
	query, args, err := psql.Insert("public.roles").
		Columns("name").
		Values(role.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create role query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&role.ID, &role.CreatedAt); err != nil {
		if isPgError(err, pgerrcode.UniqueViolation) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create role failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete role failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM public.user_roles WHERE role_id = $1`, id); err != nil {
		if isPgError(err, pgerrcode.InvalidTextRepresentation) {
			return ErrNotFound
		}
		return fmt.Errorf("remove role members failed: %w", err)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM public.roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete role failed: %w", err)
	}
	return nil
}

// AddUser inserts a membership row. Callers verify that role and user exist.
func (r *pgxRepository) AddUser(ctx context.Context, roleID, userID string) error {
	query, args, err := psql.Insert("public.user_roles").
		Columns("user_id", "role_id").
		Values(userID, roleID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build add role member query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		switch {
		case isPgError(err, pgerrcode.UniqueViolation):
			return ErrAlreadyAssigned
		case isPgError(err, pgerrcode.ForeignKeyViolation):
			// Lost a race with a concurrent user or role delete.
			return ErrUserNotFound
		}
		return fmt.Errorf("add role member failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveUser(ctx context.Context, roleID, userID string) error {
	query, args, err := psql.Delete("public.user_roles").
		Where(squirrel.Eq{"role_id": roleID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove role member query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove role member failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotAssigned
	}
	return nil
}

func (r *pgxRepository) RemoveAllUsers(ctx context.Context, roleID string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.user_roles WHERE role_id = $1`, roleID)
	if err != nil {
		return 0, fmt.Errorf("remove all role members failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) ListMembers(ctx context.Context, roleID string) ([]*Member, error) {
	query, args, err := psql.Select("u.id", "u.email", "u.first_name", "u.last_name").
		From("public.user_roles ur").
		Join("public.users u ON ur.user_id = u.id").
		Where(squirrel.Eq{"ur.role_id": roleID}).
		OrderBy("u.email ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role members query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list role members failed: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("scan role member failed: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role members failed: %w", err)
	}
	return members, nil
}
