package role

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

// fakeStore backs both the role repository and the user directory so that
// user roles reflect membership changes.
type fakeStore struct {
	roles   map[string]*Role
	members map[string]map[string]bool // role id -> user ids
	users   map[string]*user.User
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		roles:   map[string]*Role{},
		members: map[string]map[string]bool{},
		users:   map[string]*user.User{},
	}
	for _, name := range []string{auth.RoleUser, auth.RoleAdmin} {
		id := uuid.NewString()
		s.roles[id] = &Role{ID: id, Name: name, CreatedAt: time.Now()}
	}
	return s
}

func (s *fakeStore) roleByName(name string) *Role {
	for _, r := range s.roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (s *fakeStore) addUser(email string) *user.User {
	u := &user.User{ID: uuid.NewString(), Email: email, FirstName: "Test", LastName: "User"}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) List(context.Context) ([]*Role, error) {
	var out []*Role
	for _, r := range s.roles {
		c := *r
		c.UserCount = len(s.members[r.ID])
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *r
	c.UserCount = len(s.members[id])
	return &c, nil
}

func (s *fakeStore) Create(_ context.Context, r *Role) error {
	if s.roleByName(r.Name) != nil {
		return ErrAlreadyExists
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	c := *r
	s.roles[r.ID] = &c
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(s.members, id)
	delete(s.roles, id)
	return nil
}

func (s *fakeStore) AddUser(_ context.Context, roleID, userID string) error {
	if s.members[roleID][userID] {
		return ErrAlreadyAssigned
	}
	if s.members[roleID] == nil {
		s.members[roleID] = map[string]bool{}
	}
	s.members[roleID][userID] = true
	return nil
}

func (s *fakeStore) RemoveUser(_ context.Context, roleID, userID string) error {
	if !s.members[roleID][userID] {
		return ErrNotAssigned
	}
	delete(s.members[roleID], userID)
	return nil
}

func (s *fakeStore) RemoveAllUsers(_ context.Context, roleID string) (int64, error) {
	n := int64(len(s.members[roleID]))
	delete(s.members, roleID)
	return n, nil
}

func (s *fakeStore) ListMembers(_ context.Context, roleID string) ([]*Member, error) {
	var out []*Member
	for id := range s.members[roleID] {
		u := s.users[id]
		out = append(out, &Member{UserID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName})
	}
	return out, nil
}

// userDirectory exposes the store's users with roles derived from membership.
type userDirectory struct{ s *fakeStore }

func (d userDirectory) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := d.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	c := *u
	c.Roles = nil
	for roleID, ids := range d.s.members {
		if ids[id] {
			c.Roles = append(c.Roles, d.s.roles[roleID].Name)
		}
	}
	return &c, nil
}

func newTestService() (Service, *fakeStore) {
	s := newFakeStore()
	return NewService(s, userDirectory{s}), s
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"manager":       "ROLE_MANAGER",
		"  Front_Desk ": "ROLE_FRONT_DESK",
		"role_auditor":  "ROLE_AUDITOR",
		"ROLE_ADMIN":    "ROLE_ADMIN",
		"   ":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "manager")
	require.NoError(t, err)
	assert.Equal(t, "ROLE_MANAGER", r.Name)
	assert.NotEmpty(t, r.ID)

	_, err = svc.Create(ctx, "Manager")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Create(ctx, " ")
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = svc.Create(ctx, "role_")
	assert.ErrorIs(t, err, ErrNameRequired)

	roles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}

func TestAssignAndRemoveUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	admin := store.roleByName(auth.RoleAdmin)
	u := store.addUser("ada@example.com")

	got, err := svc.AssignUser(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasRole(auth.RoleAdmin))

	_, err = svc.AssignUser(ctx, admin.ID, u.ID)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	members, err := svc.ListMembers(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "ada@example.com", members[0].Email)

	got, err = svc.RemoveUser(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, got.HasRole(auth.RoleAdmin))

	_, err = svc.RemoveUser(ctx, admin.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotAssigned)
}

func TestMembershipLookupErrors(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	admin := store.roleByName(auth.RoleAdmin)
	u := store.addUser("ada@example.com")

	_, err := svc.AssignUser(ctx, uuid.NewString(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AssignUser(ctx, admin.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RemoveUser(ctx, admin.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RemoveAllUsers(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAllUsers(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	r, err := svc.Create(ctx, "housekeeping")
	require.NoError(t, err)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.AssignUser(ctx, r.ID, store.addUser(email).ID)
		require.NoError(t, err)
	}
	before, err := svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, before.UserCount)

	cleared, err := svc.RemoveAllUsers(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.UserCount)

	members, err := svc.ListMembers(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "night_audit")
	require.NoError(t, err)
	u := store.addUser("ada@example.com")
	_, err = svc.AssignUser(ctx, r.ID, u.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, r.ID))
	_, err = svc.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.members[r.ID])

	assert.ErrorIs(t, svc.Delete(ctx, r.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, store.roleByName(auth.RoleUser).ID), ErrBuiltinRole)
}
