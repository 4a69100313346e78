package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

func TestCanPerformTruthTable(t *testing.T) {
	user, admin, super := model.UserRoleUser, model.UserRoleAdmin, model.UserRoleSuperAdmin

	cases := []struct {
		action   Action
		resource Resource
		allowed  []model.UserRole
	}{
		{ActionView, ResourceAnnouncement, []model.UserRole{Guest, user, admin, super}},
		{ActionView, ResourceEvent, []model.UserRole{Guest, user, admin, super}},
		{ActionCreate, ResourceAnnouncement, []model.UserRole{admin, super}},
		{ActionUpdate, ResourceAnnouncement, []model.UserRole{admin, super}},
		{ActionDelete, ResourceAnnouncement, []model.UserRole{admin, super}},
		{ActionCreate, ResourceEvent, []model.UserRole{admin, super}},
		{ActionUpdate, ResourceEvent, []model.UserRole{admin, super}},
		{ActionDelete, ResourceEvent, []model.UserRole{admin, super}},
		{ActionView, ResourceUser, []model.UserRole{super}},
		{ActionCreate, ResourceUser, []model.UserRole{super}},
		{ActionUpdate, ResourceUser, []model.UserRole{super}},
		{ActionDelete, ResourceUser, []model.UserRole{super}},
		{ActionCreate, ResourceComment, []model.UserRole{user, admin, super}},
		{ActionCreate, ResourceReaction, []model.UserRole{user, admin, super}},
		{ActionDelete, ResourceComment, nil},
		{ActionDelete, ResourceReaction, nil},
		{ActionCreate, ResourceAnalytics, []model.UserRole{user, admin, super}},
		{ActionView, ResourceAnalytics, []model.UserRole{admin, super}},
	}

	for _, tc := range cases {
		for _, role := range []model.UserRole{Guest, user, admin, super} {
			want := false
			for _, allowed := range tc.allowed {
				if allowed == role {
					want = true
				}
			}
			got := CanPerform(role, tc.action, tc.resource)
			assert.Equalf(t, want, got, "CanPerform(%q, %s, %s)", role, tc.action, tc.resource)
		}
	}
}

func TestCanPerformRejectsUnknownRole(t *testing.T) {
	assert.False(t, CanPerform("admin", ActionCreate, ResourceAnnouncement))
	assert.False(t, CanPerform("OWNER", ActionCreate, ResourceComment))
}

func TestCanDeleteOwned(t *testing.T) {
	author := uuid.New()
	assert.True(t, CanDeleteOwned(author, author))
	assert.False(t, CanDeleteOwned(uuid.New(), author))
	assert.False(t, CanDeleteOwned(uuid.Nil, uuid.Nil))
}

func TestAuthorizeDistinguishesGuestFromForbidden(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, ActionCreate, ResourceAnnouncement), ErrUnauthorized)
	assert.ErrorIs(t, Authorize(&Subject{ID: uuid.New(), Role: model.UserRoleUser}, ActionCreate, ResourceAnnouncement), ErrForbidden)
	assert.NoError(t, Authorize(&Subject{ID: uuid.New(), Role: model.UserRoleAdmin}, ActionCreate, ResourceAnnouncement))
	assert.NoError(t, Authorize(nil, ActionView, ResourceEvent))
}

func TestAuthorizeOwnerIgnoresRole(t *testing.T) {
	author := uuid.New()
	super := &Subject{ID: uuid.New(), Role: model.UserRoleSuperAdmin}

	assert.ErrorIs(t, AuthorizeOwner(super, author), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwner(nil, author), ErrUnauthorized)
	assert.NoError(t, AuthorizeOwner(&Subject{ID: author, Role: model.UserRoleUser}, author))
}
