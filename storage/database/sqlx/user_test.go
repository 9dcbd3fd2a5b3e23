package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/user"
	"github.com/Iamayomi/academic-management-platform/tests"
)

func userIDs(users []user.User) []int {
	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Ada Lovelace", "ada@test.cd", "Pwd#12345", user.RoleLecturer, true)
	require.NotZero(t, usr.ID)

	got, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, user.RoleLecturer, got.Role)
	assert.True(t, got.IsActive)
	assert.False(t, got.LastLogin.Valid)
	assert.NoError(t, got.CheckPassword("Pwd#12345"))

	got, err = repo.GetUserByEmail(ctx, "ada@test.cd")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = repo.GetUserByID(ctx, usr.ID+100)
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.GetUserByEmail(ctx, "nobody@test.cd")
	assert.Equal(t, user.ErrNotFound, err)

	_, err = repo.CreateUser(ctx, user.User{Name: "Dup", Email: "ada@test.cd", Role: user.RoleStudent, PasswordHash: []byte("x")})
	assert.Equal(t, core.ErrDuplicateRecord, err)
}

func TestUserRepository_CheckEmailUniqueness(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "", user.RoleStudent, true)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "ada@test.cd"))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "ada@test.cd", usr))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "bob@test.cd"))
}

func TestUserRepository_QueryUsers(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	admin := testutil.CreateUser(t, repo, "Admin", "admin@test.cd", "", user.RoleAdmin, true, now.Add(3*time.Hour))
	lect := testutil.CreateUser(t, repo, "Grace Hopper", "grace@test.cd", "", user.RoleLecturer, true, now.Add(1*time.Hour))
	stud := testutil.CreateUser(t, repo, "Alan", "alan@uni.cd", "", user.RoleStudent, true, now.Add(2*time.Hour))
	naughty := testutil.CreateUser(t, repo, "N Dog", "ndog@test.cd", "", user.RoleStudent, false, now)

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []int
	}{
		{name: "all", want: []int{admin.ID, lect.ID, stud.ID, naughty.ID}},
		{name: "search name", filter: &user.QueryFilter{Search: "grace"}, want: []int{lect.ID}},
		{name: "search email", filter: &user.QueryFilter{Search: "uni.cd"}, want: []int{stud.ID}},
		{name: "search unknown", filter: &user.QueryFilter{Search: "lol"}, want: []int{}},
		{name: "roles", filter: &user.QueryFilter{Roles: []string{user.RoleStudent, user.RoleAdmin}}, want: []int{admin.ID, stud.ID, naughty.ID}},
		{name: "inactive", filter: &user.QueryFilter{IsActive: bPtr(false)}, want: []int{naughty.ID}},
		{
			name:   "combo",
			filter: &user.QueryFilter{Search: "test.cd", Roles: []string{user.RoleStudent}, IsActive: bPtr(true)},
			want:   []int{},
		},
		{
			name:     "order by -createdAt",
			ordering: []core.DBOrdering{{Field: "createdAt"}},
			want:     []int{admin.ID, stud.ID, lect.ID, naughty.ID},
		},
		{
			name:     "order by role,-name",
			ordering: []core.DBOrdering{{Field: "role", Ascending: true}, {Field: "name"}},
			want:     []int{admin.ID, lect.ID, naughty.ID, stud.ID},
		},
		{
			name:     "unknown ordering ignored",
			ordering: []core.DBOrdering{{Field: "password_hash; DROP TABLE users"}},
			want:     []int{admin.ID, lect.ID, stud.ID, naughty.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, userIDs(users))
		})
	}
}

func TestUserRepository_UpdateUser(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "", user.RoleStudent, true)
	other := testutil.CreateUser(t, repo, "Bob", "bob@test.cd", "", user.RoleStudent, true)

	usr.IsActive = false
	usr.Name = "Ada L."
	_, err := repo.UpdateUser(ctx, usr)
	require.NoError(t, err)

	got, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.False(t, got.IsActive)

	other.Email = "ada@test.cd"
	_, err = repo.UpdateUser(ctx, other)
	assert.Equal(t, core.ErrDuplicateRecord, err)

	_, err = repo.UpdateUser(ctx, user.User{ID: 999, Name: "ghost", Email: "ghost@test.cd", Role: user.RoleStudent, PasswordHash: []byte("x")})
	assert.Equal(t, user.ErrNotFound, err)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserRepository_passwordHashRequired(t *testing.T) {
	repo := NewUserRepository(testutil.PrepareDB(t))
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, user.User{Name: "Nohash", Email: "nohash@test.cd", Role: user.RoleStudent})
	assert.Equal(t, core.ErrMissingValue, err)

	// users created without a password get a hash no password matches
	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.cd", "", user.RoleStudent, true)
	got, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.UnusablePasswordHash, got.PasswordHash)
	assert.Error(t, got.CheckPassword(""))
	assert.Error(t, got.CheckPassword("!"))
}
