package sse

import (
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

// Bridge forwards domain events from the bus to live clients. Draft content
// only reaches staff; guests learn that a published item went away but
// never see its draft body.
func Bridge(bus *event.Bus, hub *SSEHub, logger *zap.Logger) {
	if bus == nil || hub == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bus.Subscribe(event.EventContentChanged, func(raw any) {
		payload, ok := raw.(event.ContentChangedPayload)
		if !ok {
			logger.Warn("unexpected content payload", zap.Any("payload", raw))
			return
		}
		hub.Broadcast(contentEvent(payload))
	})

	bus.Subscribe(event.EventEngagementChanged, func(raw any) {
		payload, ok := raw.(event.EngagementChangedPayload)
		if !ok {
			return
		}
		ev := NewEvent(EventEngagement, payload)
		if !payload.Published {
			ev = ev.StaffOnly()
		}
		hub.Broadcast(ev)
	})
}

func contentEvent(payload event.ContentChangedPayload) SSEEvent {
	eventType := EventAnnouncement
	if payload.Kind == model.ContentEvent {
		eventType = EventBoardEvent
	}

	switch {
	case payload.Published:
		return NewEvent(eventType, payload)
	case payload.Action == event.ActionUnpublished:
		payload.Data = nil
		return NewEvent(eventType, payload)
	default:
		return NewEvent(eventType, payload).StaffOnly()
	}
}
