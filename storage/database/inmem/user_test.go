package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

func TestUserRepository_constraints(t *testing.T) {
	repo := NewUserRepository(Open())
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, user.User{Name: "Nohash", Email: "nohash@test.cd", Role: user.RoleStudent})
	assert.Equal(t, core.ErrMissingValue, err)

	usr, err := repo.CreateUser(ctx, user.User{Name: "Ada", Email: "ada@test.cd", Role: user.RoleStudent, PasswordHash: []byte("x")})
	require.NoError(t, err)
	assert.NotZero(t, usr.ID)

	_, err = repo.CreateUser(ctx, user.User{Name: "Dup", Email: "ada@test.cd", Role: user.RoleStudent, PasswordHash: []byte("x")})
	assert.Equal(t, core.ErrDuplicateRecord, err)

	usr.PasswordHash = nil
	_, err = repo.UpdateUser(ctx, usr)
	assert.Equal(t, core.ErrMissingValue, err)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
