package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

func TestDayBoundsCoversWholeLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	from, to, err := DayBounds("2025-05-15", loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2025, 5, 16, 0, 0, 0, 0, loc), to)

	_, _, err = DayBounds("15/05/2025", loc)
	assert.Error(t, err)
}

func TestListEventsFiltersByCalendarDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", "correct-horse", model.UserRoleAdmin, true)

	env.seedEvent(t, admin, "Day before", "2025-05-14T23:59:59Z", true)
	env.seedEvent(t, admin, "Midnight", "2025-05-15", true)
	env.seedEvent(t, admin, "Last second", "2025-05-15T23:59:59Z", true)
	env.seedEvent(t, admin, "Next day", "2025-05-16", true)

	items, total, err := env.events.List(ctx, nil, EventQuery{Day: "2025-05-15"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Midnight", items[0].Title)
	assert.Equal(t, "Last second", items[1].Title)

	_, _, err = env.events.List(ctx, nil, EventQuery{Day: "May 15"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListEventsUpcomingStartsToday(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", "correct-horse", model.UserRoleAdmin, true)

	env.seedEvent(t, admin, "Yesterday", "2025-05-14", true)
	env.seedEvent(t, admin, "Earlier today", "2025-05-15", true)
	env.seedEvent(t, admin, "Next week", "2025-05-22", true)
	env.seedEvent(t, admin, "Hidden", "2025-05-23", false)

	items, _, err := env.events.List(context.Background(), nil, EventQuery{Upcoming: true})
	require.NoError(t, err)
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"Earlier today", "Next week"}, titles)
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", "correct-horse", model.UserRoleAdmin, true)

	_, err := env.events.Create(context.Background(), admin, EventInput{
		Title:     "Standup",
		Date:      "tomorrow",
		StartTime: "25:00",
		EndTime:   "09:00",
		Category:  "party",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"location"}, verr.MissingFields)
	assert.Equal(t, []string{"category", "date", "start_time"}, verr.InvalidFields)

	_, err = env.events.Create(context.Background(), admin, EventInput{
		Title: "Backwards", Location: "Room 1", Date: "2025-06-01",
		StartTime: "15:00", EndTime: "14:00", Category: model.EventCategoryWebinar,
	})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"end_time"}, verr.InvalidFields)
}

func TestEventPublishToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", "correct-horse", model.UserRoleAdmin, true)

	var last event.ContentChangedPayload
	env.bus.Subscribe(event.EventContentChanged, func(raw any) {
		last = raw.(event.ContentChangedPayload)
	})

	item := env.seedEvent(t, admin, "Launch", "2025-06-01", false)
	env.bus.Wait()
	assert.False(t, last.Published)

	updated, err := env.events.SetPublished(ctx, admin, item.ID.String(), true)
	require.NoError(t, err)
	env.bus.Wait()
	assert.True(t, updated.Published)
	assert.Equal(t, event.ActionPublished, last.Action)
	assert.Equal(t, model.ContentEvent, last.Kind)

	count, err := env.store.Events.Count(ctx, repository.EventListFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
