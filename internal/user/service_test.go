package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
)

type fakeRepo struct {
	users map[string]*User // by email
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*User{}}
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, u *User, defaultRole string) error {
	if _, ok := f.users[u.Email]; ok {
		return ErrEmailAlreadyUsed
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.Roles = []string{defaultRole}
	f.users[u.Email] = u
	return nil
}

func (f *fakeRepo) List(context.Context, Filter) ([]*User, int, error) {
	var out []*User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) DeleteByEmail(_ context.Context, email string) error {
	if _, ok := f.users[email]; !ok {
		return ErrNotFound
	}
	delete(f.users, email)
	return nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, auth.NewBcryptPasswordHasher(bcrypt.MinCost)), repo
}

func validRegistration() RegisterRequest {
	return RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "  Ada@Example.com ", Password: "analytical"}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.HasRole(auth.RoleUser))
	assert.NotEqual(t, "analytical", u.PasswordHash)

	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name    string
		mutate  func(*RegisterRequest)
		wantErr error
	}{
		{"no email", func(r *RegisterRequest) { r.Email = " " }, ErrEmailRequired},
		{"no first name", func(r *RegisterRequest) { r.FirstName = "" }, ErrNameRequired},
		{"no last name", func(r *RegisterRequest) { r.LastName = " " }, ErrNameRequired},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	u, err := svc.Login(ctx, "ADA@example.com", "analytical")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "analytical")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown users look like bad passwords")
}

func TestGetAndDeleteByEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	u, err := svc.GetByEmail(ctx, "Ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)

	require.NoError(t, svc.DeleteByEmail(ctx, "ada@example.com"))
	_, err = svc.GetByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteByEmail(ctx, "ada@example.com"), ErrNotFound)
}

func TestHasRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	ok, err := svc.HasRole(ctx, u.ID, auth.RoleUser)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasRole(ctx, u.ID, auth.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasRole(ctx, uuid.NewString(), auth.RoleUser)
	require.NoError(t, err)
	assert.False(t, ok)
}
