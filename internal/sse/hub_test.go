package sse

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

func newTestHub() *SSEHub {
	return newHub(zap.NewNop())
}

func member(role model.UserRole) *model.PublicUser {
	return &model.PublicUser{ID: uuid.New(), Role: role}
}

func TestBroadcast_AllClientsReceive(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	guest := NewClient(nil, TransportWebSocket)
	user := NewClient(member(model.UserRoleUser), TransportSSE)
	hub.Register(guest)
	hub.Register(user)

	hub.Broadcast(NewEvent(EventAnnouncement, map[string]any{"action": "created"}))

	assertEventType(t, guest.Ch, EventAnnouncement)
	assertEventType(t, user.Ch, EventAnnouncement)
}

func TestStaffEventsSkipGuestsAndUsers(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	guest := NewClient(nil, TransportSSE)
	user := NewClient(member(model.UserRoleUser), TransportSSE)
	admin := NewClient(member(model.UserRoleAdmin), TransportSSE)
	super := NewClient(member(model.UserRoleSuperAdmin), TransportSSE)
	for _, c := range []*SSEClient{guest, user, admin, super} {
		hub.Register(c)
	}

	hub.Broadcast(NewEvent(EventAnnouncement, map[string]any{"draft": true}).StaffOnly())

	assertEventType(t, admin.Ch, EventAnnouncement)
	assertEventType(t, super.Ch, EventAnnouncement)
	assertNoEvent(t, guest.Ch)
	assertNoEvent(t, user.Ch)
}

func TestSendToRole_OnlyMatchingRoleReceives(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	admin := NewClient(member(model.UserRoleAdmin), TransportSSE)
	user := NewClient(member(model.UserRoleUser), TransportSSE)
	hub.Register(admin)
	hub.Register(user)

	hub.SendToRole(model.UserRoleAdmin, NewEvent(EventEngagement, map[string]any{"n": 1}))

	assertEventType(t, admin.Ch, EventEngagement)
	assertNoEvent(t, user.Ch)
}

func TestBackpressure_SlowClientDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	slow := &SSEClient{ID: "slow", Transport: TransportSSE, Ch: make(chan SSEEvent, 1), Done: make(chan struct{})}
	fast := &SSEClient{ID: "fast", Transport: TransportSSE, Ch: make(chan SSEEvent, 1), Done: make(chan struct{})}
	// Fill the slow client queue so dispatch takes the non-blocking path.
	slow.Ch <- NewEvent(EventHeartbeat, map[string]any{"seed": true})

	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast(NewEvent(EventBoardEvent, map[string]any{"action": "updated"}))

	assertEventType(t, fast.Ch, EventBoardEvent)
}

func TestSinceFiltersByAudience(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	public := NewEvent(EventAnnouncement, map[string]any{"n": 1})
	draft := NewEvent(EventAnnouncement, map[string]any{"n": 2}).StaffOnly()
	hub.Broadcast(public)
	hub.Broadcast(draft)

	if got := hub.Since("", ""); len(got) != 1 || got[0].ID != public.ID {
		t.Fatalf("guest replay should only contain the public event, got %+v", got)
	}
	if got := hub.Since("", model.UserRoleAdmin); len(got) != 2 {
		t.Fatalf("admin replay should contain both events, got %d", len(got))
	}
	if got := hub.Since(public.ID, model.UserRoleAdmin); len(got) != 1 || got[0].ID != draft.ID {
		t.Fatalf("replay after %s should contain only the draft, got %+v", public.ID, got)
	}
}

func TestBridgeKeepsDraftsFromGuests(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	bus := event.NewBus()
	Bridge(bus, hub, zap.NewNop())

	guest := NewClient(nil, TransportWebSocket)
	admin := NewClient(member(model.UserRoleAdmin), TransportSSE)
	hub.Register(guest)
	hub.Register(admin)

	bus.Publish(event.EventContentChanged, event.ContentChangedPayload{
		Kind: model.ContentAnnouncement, Action: event.ActionCreated, ID: uuid.New(), Published: false,
	})
	bus.Wait()
	assertEventType(t, admin.Ch, EventAnnouncement)
	assertNoEvent(t, guest.Ch)

	bus.Publish(event.EventContentChanged, event.ContentChangedPayload{
		Kind: model.ContentEvent, Action: event.ActionPublished, ID: uuid.New(), Published: true,
	})
	bus.Wait()
	assertEventType(t, guest.Ch, EventBoardEvent)
	assertEventType(t, admin.Ch, EventBoardEvent)
}

func TestReplayLog_SinceReturnsNewerEvents(t *testing.T) {
	t.Parallel()

	log := NewReplayLog(10)
	log.Append(SSEEvent{ID: "1", Type: EventAnnouncement})
	log.Append(SSEEvent{ID: "2", Type: EventBoardEvent})
	log.Append(SSEEvent{ID: "3", Type: EventEngagement})
	log.Append(SSEEvent{ID: "hb", Type: EventHeartbeat})

	events := log.Since("1", nil)
	if len(events) != 2 {
		t.Fatalf("expected 2 events after id=1, got %d", len(events))
	}
	if events[0].ID != "2" || events[1].ID != "3" {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
	if got := log.Since("3", nil); len(got) != 0 {
		t.Fatalf("expected nothing after the newest id, got %+v", got)
	}
}

func TestReplayLog_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	log := NewReplayLog(3)
	for _, id := range []string{"1", "2", "3", "4"} {
		log.Append(SSEEvent{ID: id, Type: EventAnnouncement})
	}

	events := log.Since("", nil)
	if len(events) != 3 || log.Len() != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	if events[0].ID != "2" || events[2].ID != "4" {
		t.Fatalf("unexpected contents after eviction: %+v", events)
	}
}

func TestReplayLog_SinceAppliesFilter(t *testing.T) {
	t.Parallel()

	log := NewReplayLog(5)
	log.Append(SSEEvent{ID: "7", Type: EventAnnouncement})
	log.Append(SSEEvent{ID: "8", Type: EventAnnouncement, Audience: AudienceStaff})

	events := log.Since("", func(e SSEEvent) bool { return e.Audience == AudienceAll })
	if len(events) != 1 || events[0].ID != "7" {
		t.Fatalf("expected only the public event, got %+v", events)
	}
}

func assertEventType(t *testing.T, ch <-chan SSEEvent, wantType string) {
	t.Helper()
	select {
	case ev := <-ch:
		if ev.Type != wantType {
			t.Fatalf("expected event type %q, got %q", wantType, ev.Type)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event type %q", wantType)
	}
}

func assertNoEvent(t *testing.T, ch <-chan SSEEvent) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
