package sse

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

const (
	heartbeatInterval     = 30 * time.Second
	backpressureFullLimit = 5
)

// SSEHub fans board changes out to live clients of every transport and
// keeps a short replay buffer for reconnects.
type SSEHub struct {
	clients sync.Map
	replay  *ReplayLog

	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewHub(logger *zap.Logger) *SSEHub {
	hub := newHub(logger)
	go hub.startHeartbeat()
	return hub
}

func newHub(logger *zap.Logger) *SSEHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSEHub{
		replay: NewReplayLog(defaultReplayCapacity),
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (h *SSEHub) Register(client *SSEClient) {
	if h == nil || client == nil || client.ID == "" {
		return
	}

	h.clients.Store(client.ID, client)
	h.reportClients(client.Transport)
}

func (h *SSEHub) Unregister(clientID string) {
	if h == nil || clientID == "" {
		return
	}

	value, loaded := h.clients.LoadAndDelete(clientID)
	if !loaded {
		return
	}

	if client, ok := value.(*SSEClient); ok {
		client.Close()
		metrics.ObserveLiveConnectionDuration(client.Transport, time.Since(client.ConnectedAt))
		h.reportClients(client.Transport)
	}
}

// Broadcast delivers the event to every client its audience admits.
func (h *SSEHub) Broadcast(event SSEEvent) {
	if h == nil {
		return
	}

	if event.Type != EventHeartbeat {
		h.replay.Append(event)
	}
	h.clients.Range(func(_, value any) bool {
		if client, ok := value.(*SSEClient); ok && client.Accepts(event) {
			h.dispatch(client, event)
		}
		return true
	})
}

func (h *SSEHub) SendToRole(role model.UserRole, event SSEEvent) {
	if h == nil || role == "" {
		return
	}

	h.clients.Range(func(_, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}
		if client.Role == role && client.Accepts(event) {
			h.dispatch(client, event)
		}
		return true
	})
}

// Since returns buffered events after lastID that role may see.
func (h *SSEHub) Since(lastID string, role model.UserRole) []SSEEvent {
	if h == nil {
		return nil
	}
	probe := &SSEClient{Role: role}
	return h.replay.Since(lastID, probe.Accepts)
}

func (h *SSEHub) Close() {
	if h == nil {
		return
	}

	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	h.clients.Range(func(key, _ any) bool {
		if id, ok := key.(string); ok {
			h.Unregister(id)
		}
		return true
	})
}

func (h *SSEHub) ConnectedCount() int {
	return h.countWhere(func(*SSEClient) bool { return true })
}

// Stats counts connected clients per transport.
func (h *SSEHub) Stats() map[string]int {
	return map[string]int{
		TransportSSE:       h.countWhere(func(c *SSEClient) bool { return c.Transport == TransportSSE }),
		TransportWebSocket: h.countWhere(func(c *SSEClient) bool { return c.Transport == TransportWebSocket }),
	}
}

func (h *SSEHub) countWhere(match func(*SSEClient) bool) int {
	if h == nil {
		return 0
	}

	count := 0
	h.clients.Range(func(_, value any) bool {
		if client, ok := value.(*SSEClient); ok && match(client) {
			count++
		}
		return true
	})
	return count
}

func (h *SSEHub) reportClients(transport string) {
	metrics.SetLiveClients(transport, h.countWhere(func(c *SSEClient) bool {
		return c.Transport == transport
	}))
}

func (h *SSEHub) dispatch(client *SSEClient, event SSEEvent) {
	if client == nil {
		return
	}

	select {
	case <-client.Done:
		return
	case client.Ch <- event:
		client.MarkDispatchSuccess()
		return
	default:
		streak := client.MarkDispatchFull()
		h.logger.Warn("drop live event due to full buffer",
			zap.String("client_id", client.ID),
			zap.String("transport", client.Transport),
			zap.String("type", event.Type),
			zap.Int32("full_streak", streak),
		)
		if streak >= backpressureFullLimit {
			h.logger.Warn("disconnect slow live client due to backpressure",
				zap.String("client_id", client.ID),
				zap.Int32("full_streak", streak),
			)
			h.Unregister(client.ID)
		}
	}
}

func (h *SSEHub) startHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case now := <-ticker.C:
			h.Broadcast(NewEvent(EventHeartbeat, map[string]any{
				"ts": now.UTC().Format(time.RFC3339Nano),
			}))
		}
	}
}
