package sse

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

// SSEClient is one live connection. Guests and wall displays have an empty
// Role and a nil UserID.
type SSEClient struct {
	ID          string
	UserID      *uuid.UUID
	Role        model.UserRole
	Transport   string
	ConnectedAt time.Time
	Ch          chan SSEEvent
	Done        chan struct{}

	fullStreak atomic.Int32
	closeOnce  sync.Once
}

func NewClient(user *model.PublicUser, transport string) *SSEClient {
	client := &SSEClient{
		ID:          uuid.NewString(),
		Transport:   transport,
		ConnectedAt: time.Now(),
		Ch:          make(chan SSEEvent, 256),
		Done:        make(chan struct{}),
	}
	if user != nil {
		id := user.ID
		client.UserID = &id
		client.Role = user.Role
	}
	return client
}

func (c *SSEClient) Accepts(event SSEEvent) bool {
	if event.Audience == AudienceStaff {
		return c.Role.IsStaff()
	}
	return true
}

func (c *SSEClient) Close() {
	if c == nil {
		return
	}

	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

func (c *SSEClient) MarkDispatchSuccess() {
	if c == nil {
		return
	}
	c.fullStreak.Store(0)
}

func (c *SSEClient) MarkDispatchFull() int32 {
	if c == nil {
		return 0
	}
	return c.fullStreak.Add(1)
}
