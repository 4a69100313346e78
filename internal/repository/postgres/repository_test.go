package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

func seedUser(t *testing.T, repo repository.UserRepository, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		Name:         "Seed " + email,
		Role:         role,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestPostgresRepositories(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	announcements := NewAnnouncementRepository(pool)
	events := NewEventRepository(pool)
	comments := NewCommentRepository(pool)
	reactions := NewReactionRepository(pool)
	sessions := NewSessionRepository(pool)

	admin := seedUser(t, users, "admin@example.com", model.UserRoleAdmin)
	reader := seedUser(t, users, "reader@example.com", model.UserRoleUser)

	t.Run("email lookup ignores case and duplicates conflict", func(t *testing.T) {
		got, err := users.FindByEmail(ctx, "ADMIN@example.com")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)

		dup := &model.User{Email: "Admin@Example.com", PasswordHash: "x", Name: "dup", Role: model.UserRoleUser, Active: true}
		assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrConflict)

		_, err = users.FindByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	announcement := &model.Announcement{
		Title:       "Gallery",
		Content:     "Photos from the offsite",
		Category:    model.CategoryGeneral,
		DisplayType: model.DisplayImageCarousel,
		Published:   true,
		AuthorID:    admin.ID,
		Images:      []string{"/img/3.png", "/img/1.png", "/img/2.png"},
	}
	require.NoError(t, announcements.Create(ctx, announcement))

	t.Run("announcement images keep their order", func(t *testing.T) {
		got, err := announcements.FindByID(ctx, announcement.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"/img/3.png", "/img/1.png", "/img/2.png"}, got.Images)
		assert.Nil(t, got.Hotspots)
		assert.Nil(t, got.TimelineEvents)
	})

	t.Run("published filter", func(t *testing.T) {
		draft := &model.Announcement{
			Title: "Draft", Content: "wip", Category: model.CategoryUpdate,
			DisplayType: model.DisplayStandard, AuthorID: admin.ID,
		}
		require.NoError(t, announcements.Create(ctx, draft))

		published, err := announcements.List(ctx, repository.AnnouncementListFilter{PublishedOnly: true})
		require.NoError(t, err)
		for _, item := range published {
			assert.True(t, item.Published)
		}
		total, err := announcements.Count(ctx, repository.AnnouncementListFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("event date range", func(t *testing.T) {
		day := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
		for _, at := range []time.Time{day.Add(-time.Minute), day, day.Add(23*time.Hour + 59*time.Minute), day.Add(24 * time.Hour)} {
			require.NoError(t, events.Create(ctx, &model.Event{
				Title: "Standup", Location: "Room 1", Date: at, StartTime: "09:00", EndTime: "09:15",
				Category: model.EventCategoryInternal, Published: true, CreatedByID: admin.ID,
			}))
		}
		end := day.Add(24 * time.Hour)
		got, err := events.List(ctx, repository.EventListFilter{From: &day, To: &end})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("duplicate reaction conflicts", func(t *testing.T) {
		ref := model.AnnouncementRef(announcement.ID)
		first := &model.Reaction{Type: model.ReactionLike, UserID: reader.ID, AnnouncementID: ref.AnnouncementID}
		require.NoError(t, reactions.Create(ctx, first))
		second := &model.Reaction{Type: model.ReactionLike, UserID: reader.ID, AnnouncementID: ref.AnnouncementID}
		assert.ErrorIs(t, reactions.Create(ctx, second), repository.ErrConflict)

		counts, err := reactions.CountByTarget(ctx, ref)
		require.NoError(t, err)
		assert.EqualValues(t, 1, counts[model.ReactionLike])
	})

	t.Run("set published toggles and reports missing rows", func(t *testing.T) {
		require.NoError(t, announcements.SetPublished(ctx, announcement.ID, false))
		got, err := announcements.FindByID(ctx, announcement.ID)
		require.NoError(t, err)
		assert.False(t, got.Published)
		require.NoError(t, announcements.SetPublished(ctx, announcement.ID, true))

		assert.ErrorIs(t, announcements.SetPublished(ctx, uuid.New(), true), ErrNotFound)
		assert.ErrorIs(t, events.SetPublished(ctx, uuid.New(), true), ErrNotFound)
	})

	t.Run("author with content cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, users.Delete(ctx, admin.ID), repository.ErrReferenced)
		_, err := users.FindByID(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("announcement delete cascades engagement", func(t *testing.T) {
		comment := &model.Comment{Content: "nice", AuthorID: reader.ID, AnnouncementID: &announcement.ID}
		require.NoError(t, comments.Create(ctx, comment))

		require.NoError(t, announcements.Delete(ctx, announcement.ID))
		_, err := comments.FindByID(ctx, comment.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, announcements.Delete(ctx, announcement.ID), ErrNotFound)
	})

	t.Run("refresh token rotation", func(t *testing.T) {
		old := &model.RefreshToken{UserID: reader.ID, TokenHash: hash64("a"), ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, sessions.Create(ctx, old))

		next := &model.RefreshToken{UserID: reader.ID, TokenHash: hash64("b"), ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, sessions.Rotate(ctx, old.TokenHash, next))

		_, err := sessions.FindByHash(ctx, old.TokenHash)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, sessions.Rotate(ctx, old.TokenHash, &model.RefreshToken{
			ID: uuid.New(), UserID: reader.ID, TokenHash: hash64("c"), ExpiresAt: time.Now(),
		}), ErrNotFound)

		purged, err := sessions.DeleteExpired(ctx, time.Now().Add(2*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 1, purged)
	})
}

func hash64(seed string) string {
	out := make([]byte, 64)
	for i := range out {
		out[i] = seed[0]
	}
	return string(out)
}
