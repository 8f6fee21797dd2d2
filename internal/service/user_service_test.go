package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-server/internal/domain"
	"account-server/internal/repository"
	"account-server/internal/repository/sqlite"
)

func setupService(t *testing.T) (UserService, repository.GroupRepository) {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	groups := sqlite.NewGroupRepository(db)

	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, groups.Init(ctx))

	return NewUserService(users, groups), groups
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "wonderland1",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.String())
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)

	authed, err := svc.Authenticate(ctx, "alice", "wonderland1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	require.NotNil(t, authed.LastLogin, "authentication records login time")

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "wonderland1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "", Password: "wonderland1"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "short"})
	assert.Error(t, err)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "wonderland1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "otherpass1"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "builderpass"})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, user.ID, false))

	_, err = svc.Authenticate(ctx, "bob", "builderpass")
	assert.ErrorIs(t, err, ErrUserInactive)

	require.NoError(t, svc.SetActive(ctx, user.ID, true))
	_, err = svc.Authenticate(ctx, "bob", "builderpass")
	assert.NoError(t, err)
}

func TestHasPerm(t *testing.T) {
	svc, groups := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "wonderland1"})
	require.NoError(t, err)

	ok, err := svc.HasPerm(ctx, user.ID, "publish_post")
	require.NoError(t, err)
	assert.False(t, ok)

	publish := &domain.Permission{Codename: "publish_post"}
	publishID, err := groups.CreatePermission(ctx, publish)
	require.NoError(t, err)

	// direct grant
	require.NoError(t, groups.GrantToUser(ctx, user.ID, publishID))
	ok, err = svc.HasPerm(ctx, user.ID, "publish_post")
	require.NoError(t, err)
	assert.True(t, ok)

	// grant through group membership
	review := &domain.Permission{Codename: "review_post"}
	reviewID, err := groups.CreatePermission(ctx, review)
	require.NoError(t, err)
	editors := &domain.Group{Name: "editors"}
	groupID, err := groups.CreateGroup(ctx, editors)
	require.NoError(t, err)
	require.NoError(t, groups.GrantToGroup(ctx, groupID, reviewID))

	ok, err = svc.HasPerm(ctx, user.ID, "review_post")
	require.NoError(t, err)
	assert.False(t, ok, "not a member yet")

	require.NoError(t, groups.AddUserToGroup(ctx, user.ID, groupID))
	ok, err = svc.HasPerm(ctx, user.ID, "review_post")
	require.NoError(t, err)
	assert.True(t, ok)

	// inactive users hold no permissions
	require.NoError(t, svc.SetActive(ctx, user.ID, false))
	ok, err = svc.HasPerm(ctx, user.ID, "publish_post")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermSuperuser(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	admin, err := svc.EnsureSuperuser(ctx, "root", "rootpassword")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsSuperuser)

	ok, err := svc.HasPerm(ctx, admin.ID, "anything_at_all")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureSuperuserIdempotentAndPromoting(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.EnsureSuperuser(ctx, "root", "rootpassword")
	require.NoError(t, err)

	again, err := svc.EnsureSuperuser(ctx, "root", "different-pass")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// original password still works
	_, err = svc.Authenticate(ctx, "root", "rootpassword")
	assert.NoError(t, err)

	// an existing regular user gets promoted, password untouched
	user, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "carolpass1"})
	require.NoError(t, err)
	promoted, err := svc.EnsureSuperuser(ctx, "carol", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, promoted.ID)
	assert.True(t, promoted.IsSuperuser)
	_, err = svc.Authenticate(ctx, "carol", "carolpass1")
	assert.NoError(t, err)
}

func TestListFiltersThroughService(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "wonderland1"})
	require.NoError(t, err)
	_, err = svc.EnsureSuperuser(ctx, "root", "rootpassword")
	require.NoError(t, err)

	yes := true
	staff, err := svc.List(ctx, domain.UserFilter{IsStaff: &yes})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "root", staff[0].Username)
	assert.Empty(t, staff[0].PasswordHash)

	all, err := svc.List(ctx, domain.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByIDLoadsGroups(t *testing.T) {
	svc, groups := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "wonderland1"})
	require.NoError(t, err)

	editors := &domain.Group{Name: "editors"}
	groupID, err := groups.CreateGroup(ctx, editors)
	require.NoError(t, err)
	require.NoError(t, groups.AddUserToGroup(ctx, user.ID, groupID))

	got, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "editors", got.Groups[0].Name)

	_, err = svc.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
