package service

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
)

// canSeeDrafts reports whether the caller may read unpublished content.
func canSeeDrafts(actor *policy.Subject) bool {
	return actor != nil && actor.Role.IsStaff()
}

func actorID(actor *policy.Subject) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.ID
}

// contentNotifier publishes content mutations on the bus and counts them.
type contentNotifier struct {
	bus    *event.Bus
	logger *zap.Logger
}

func (n contentNotifier) changed(payload event.ContentChangedPayload) {
	metrics.IncContentChange(string(payload.Kind), string(payload.Action))
	if n.bus == nil {
		return
	}
	n.bus.Publish(event.EventContentChanged, payload)
}

func (n contentNotifier) engagement(payload event.EngagementChangedPayload) {
	if n.bus == nil {
		return
	}
	n.bus.Publish(event.EventEngagementChanged, payload)
}

func publishAction(published bool) event.ChangeAction {
	if published {
		return event.ActionPublished
	}
	return event.ActionUnpublished
}

func announcementSnapshot(a *model.Announcement) map[string]any {
	if a == nil {
		return nil
	}
	return map[string]any{
		"title":        a.Title,
		"category":     a.Category,
		"display_type": a.DisplayType,
		"published":    a.Published,
		"date":         formatTime(a.Date),
	}
}

func eventSnapshot(e *model.Event) map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{
		"title":      e.Title,
		"location":   e.Location,
		"category":   e.Category,
		"date":       formatTime(e.Date),
		"start_time": e.StartTime,
		"end_time":   e.EndTime,
		"department": ptrValue(e.Department),
		"published":  e.Published,
	}
}
