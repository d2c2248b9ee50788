package role

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

// UserDirectory resolves users for membership changes.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service defines business logic for roles.
type Service interface {
	List(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id string) (*Role, error)
	Create(ctx context.Context, name string) (*Role, error)
	Delete(ctx context.Context, id string) error
	// Membership methods
	AssignUser(ctx context.Context, roleID, userID string) (*user.User, error)
	RemoveUser(ctx context.Context, roleID, userID string) (*user.User, error)
	RemoveAllUsers(ctx context.Context, roleID string) (*Role, error)
	ListMembers(ctx context.Context, roleID string) ([]*Member, error)
}

type service struct {
	repo  Repository
	users UserDirectory
}

// NewService creates a new role service.
func NewService(repo Repository, users UserDirectory) Service {
	return &service{repo: repo, users: users}
}

// NormalizeName upper-cases name and adds the ROLE_ prefix when it is missing.
func NormalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, NamePrefix) {
		return name
	}
	return NamePrefix + name
}

func isBuiltin(name string) bool {
	return name == auth.RoleUser || name == auth.RoleAdmin
}

func (s *service) List(ctx context.Context) ([]*Role, error) {
	return s.repo.List(ctx)
}

func (s *service) GetByID(ctx context.Context, id string) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, name string) (*Role, error) {
	name = NormalizeName(name)
	if name == "" || name == NamePrefix {
		return nil, ErrNameRequired
	}

	r := &Role{Name: name}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	logrus.WithField("role", r.Name).Info("role created")
	return r, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if isBuiltin(r.Name) {
		return ErrBuiltinRole
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"role": r.Name, "members": r.UserCount}).Info("role deleted")
	return nil
}

// resolve verifies that both the role and the user exist.
func (s *service) resolve(ctx context.Context, roleID, userID string) (*Role, *user.User, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	return r, u, nil
}

func (s *service) AssignUser(ctx context.Context, roleID, userID string) (*user.User, error) {
	r, u, err := s.resolve(ctx, roleID, userID)
	if err != nil {
		return nil, err
	}
	if u.HasRole(r.Name) {
		return nil, ErrAlreadyAssigned
	}
	if err := s.repo.AddUser(ctx, roleID, userID); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"role": r.Name, "user_id": userID}).Info("role assigned")
	return s.users.GetByID(ctx, userID)
}

func (s *service) RemoveUser(ctx context.Context, roleID, userID string) (*user.User, error) {
	r, _, err := s.resolve(ctx, roleID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveUser(ctx, roleID, userID); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"role": r.Name, "user_id": userID}).Info("role removed")
	return s.users.GetByID(ctx, userID)
}

func (s *service) RemoveAllUsers(ctx context.Context, roleID string) (*Role, error) {
	r, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.RemoveAllUsers(ctx, roleID)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"role": r.Name, "removed": n}).Info("role cleared")
	r.UserCount = 0
	return r, nil
}

func (s *service) ListMembers(ctx context.Context, roleID string) ([]*Member, error) {
	if _, err := s.repo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, roleID)
}
