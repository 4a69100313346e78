package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
)

func TestSuperAdminCreatesAdminWhoCanSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)

	created, err := env.users.Create(ctx, root, CreateUserRequest{
		Email:    "Editor@Example.com",
		Password: "editor-pass",
		Name:     "Editor",
		Role:     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleAdmin, created.Role)

	user, err := env.auth.Authenticate(ctx, "editor@example.com", "editor-pass")
	require.NoError(t, err)

	resolved, err := env.auth.ResolveSession(ctx, user.ID.String())
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, model.UserRoleAdmin, resolved.Role)
}

func TestUserAdministrationIsSuperAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", "correct-horse", model.UserRoleAdmin, true)

	_, _, err := env.users.List(ctx, admin, UserQuery{})
	assert.ErrorIs(t, err, policy.ErrForbidden)
	_, _, err = env.users.List(ctx, nil, UserQuery{})
	assert.ErrorIs(t, err, policy.ErrUnauthorized)
	_, err = env.users.Create(ctx, admin, CreateUserRequest{Email: "x@example.com", Password: "long-enough", Name: "X"})
	assert.ErrorIs(t, err, policy.ErrForbidden)
}

func TestUserListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)
	env.seedUser(t, "alice@example.com", "correct-horse", model.UserRoleAdmin, true)
	env.seedUser(t, "bob@example.com", "correct-horse", model.UserRoleUser, false)

	users, total, err := env.users.List(ctx, root, UserQuery{Role: "Admin"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)

	users, _, err = env.users.List(ctx, root, UserQuery{Active: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)

	_, _, err = env.users.List(ctx, root, UserQuery{Role: "janitor"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserUpdateGuardsSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)
	demoted := "USER"

	_, err := env.users.Update(ctx, root, root.ID.String(), UpdateUserRequest{Role: &demoted})
	assert.ErrorIs(t, err, ErrSelfDemotionForbidden)
	_, err = env.users.Update(ctx, root, root.ID.String(), UpdateUserRequest{Active: boolPtr(false)})
	assert.ErrorIs(t, err, policy.ErrForbidden)
	assert.ErrorIs(t, env.users.Delete(ctx, root, root.ID.String()), ErrSelfDeleteForbidden)

	name := "Root"
	updated, err := env.users.Update(ctx, root, root.ID.String(), UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Root", updated.Name)
}

func TestDeactivatingUserRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)
	target := env.seedUser(t, "leaver@example.com", "correct-horse", model.UserRoleUser, true)

	session, err := env.auth.Login(ctx, "leaver@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = env.users.Update(ctx, root, target.ID.String(), UpdateUserRequest{Active: boolPtr(false)})
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, policy.ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "leaver@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestDeletingAnAuthorIsRestricted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)
	author := env.seedUser(t, "author@example.com", "correct-horse", model.UserRoleAdmin, true)
	commenter := env.seedUser(t, "commenter@example.com", "correct-horse", model.UserRoleUser, true)
	post := env.seedAnnouncement(t, author, "Mine", true)

	comment, err := env.comments.Create(ctx, commenter, CommentInput{Content: "Nice", Target: model.AnnouncementRef(post.ID)})
	require.NoError(t, err)

	err = env.users.Delete(ctx, root, author.ID.String())
	require.ErrorIs(t, err, ErrUserOwnsContent)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.store.Users.FindByID(ctx, author.ID)
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, root, commenter.ID.String()))
	_, err = env.store.Comments.FindByID(ctx, comment.ID)
	assert.Error(t, err, "comments cascade with their author")

	assert.ErrorIs(t, env.users.Delete(ctx, root, commenter.ID.String()), ErrUserNotFound)
}

func TestUserEmailConflictOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := env.seedUser(t, "root@example.com", "correct-horse", model.UserRoleSuperAdmin, true)
	other := env.seedUser(t, "other@example.com", "correct-horse", model.UserRoleUser, true)

	taken := "ROOT@example.com"
	_, err := env.users.Update(ctx, root, other.ID.String(), UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := CreateUserRequest{Email: " Root@Example.com ", Password: "bootstrap-pass", Name: "Root"}

	first, created, err := env.users.EnsureSuperAdmin(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.UserRoleSuperAdmin, first.Role)
	assert.Equal(t, "root@example.com", first.Email)

	second, created, err := env.users.EnsureSuperAdmin(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, err = env.auth.Authenticate(ctx, "root@example.com", "bootstrap-pass")
	assert.NoError(t, err)

	_, _, err = env.users.EnsureSuperAdmin(ctx, CreateUserRequest{Email: "bad", Password: "short", Name: "X"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
