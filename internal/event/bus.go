package event

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

const (
	EventContentChanged    = "content.changed"
	EventEngagementChanged = "engagement.changed"
	EventUserChanged       = "user.changed"
)

type ChangeAction string

const (
	ActionCreated     ChangeAction = "created"
	ActionUpdated     ChangeAction = "updated"
	ActionPublished   ChangeAction = "published"
	ActionUnpublished ChangeAction = "unpublished"
	ActionDeleted     ChangeAction = "deleted"
)

// ContentChangedPayload describes a mutation of an announcement or event.
// Published is the visibility after the change.
type ContentChangedPayload struct {
	Kind      model.ContentKind `json:"kind"`
	Action    ChangeAction      `json:"action"`
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title,omitempty"`
	Published bool              `json:"published"`
	ActorID   uuid.UUID         `json:"actor_id"`
	Data      any               `json:"data,omitempty"`
}

// EngagementChangedPayload describes a new or removed comment or reaction.
type EngagementChangedPayload struct {
	Target    model.ContentRef `json:"target"`
	Kind      string           `json:"kind"`
	Action    ChangeAction     `json:"action"`
	ID        uuid.UUID        `json:"id"`
	Published bool             `json:"published"`
}

type UserChangedPayload struct {
	UserID uuid.UUID    `json:"user_id"`
	Action ChangeAction `json:"action"`
}

type Bus struct {
	handlers sync.Map
	mu       sync.Mutex
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(event string, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := make([]func(payload any), 0, 1)
	if current, ok := b.handlers.Load(eventName); ok {
		if casted, valid := current.([]func(payload any)); valid {
			handlers = append(handlers, casted...)
		}
	}
	handlers = append(handlers, handler)
	b.handlers.Store(eventName, handlers)
}

// Publish runs every handler of event on its own goroutine.
func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	current, ok := b.handlers.Load(eventName)
	if !ok {
		return
	}

	handlers, ok := current.([]func(payload any))
	if !ok || len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		b.inflight.Add(1)
		go func(h func(payload any)) {
			defer b.inflight.Done()
			h(payload)
		}(handler)
	}
}

// Wait blocks until every handler started by Publish has returned.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.inflight.Wait()
}
