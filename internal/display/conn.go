// Package display serves the board feed to wall displays over a
// websocket. It reuses the live hub: a display is just another hub client
// whose events are written as JSON frames.
package display

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
)

const (
	writeWait        = 10 * time.Second
	readWait         = 60 * time.Second
	pingInterval     = (readWait * 9) / 10
	maxMessageSize   = 4 << 10
	writeBatchWindow = 100 * time.Millisecond
	maxBatchMessages = 64
)

// Conn pumps hub events to one websocket.
type Conn struct {
	ws     *websocket.Conn
	hub    *sse.SSEHub
	client *sse.SSEClient
	logger *zap.Logger

	control   chan Message
	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn, hub *sse.SSEHub, user *model.PublicUser, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		ws:      ws,
		hub:     hub,
		client:  sse.NewClient(user, sse.TransportWebSocket),
		logger:  logger,
		control: make(chan Message, 8),
	}
}

func (c *Conn) ClientID() string {
	return c.client.ID
}

// Serve registers the display, replays events after lastID and blocks
// until either side closes.
func (c *Conn) Serve(lastID string) {
	c.hub.Register(c.client)
	defer c.close()

	var replay []sse.SSEEvent
	if lastID != "" {
		replay = c.hub.Since(lastID, c.client.Role)
	}
	hello, _ := json.Marshal(HelloPayload{
		ClientID: c.client.ID,
		Role:     string(c.client.Role),
		Replayed: len(replay),
	})
	if err := c.write([][]byte{encode(Message{Type: Hello, Timestamp: time.Now().UTC(), Payload: hello})}); err != nil {
		return
	}
	for _, event := range replay {
		if err := c.write([][]byte{encode(fromEvent(event))}); err != nil {
			return
		}
	}

	go c.readPump()
	c.writePump()
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.hub.Unregister(c.client.ID)
		c.client.Close()
		_ = c.ws.Close()
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.client.Done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return
		case msg := <-c.control:
			if err := c.write([][]byte{encode(msg)}); err != nil {
				return
			}
		case event := <-c.client.Ch:
			if event.Type == sse.EventHeartbeat {
				continue
			}
			if err := c.write(c.collectBatch(event)); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive: displays send pings, never
// commands.
func (c *Conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		messageType, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("display socket closed", zap.String("client_id", c.client.ID), zap.Error(err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(Message{Type: Error, Timestamp: time.Now().UTC(), Payload: json.RawMessage(`"malformed frame"`)})
			continue
		}
		if msg.Type == Ping {
			c.reply(Message{Type: Pong, ID: msg.ID, Timestamp: time.Now().UTC()})
		}
	}
}

func (c *Conn) reply(msg Message) {
	select {
	case c.control <- msg:
	default:
	}
}

func (c *Conn) collectBatch(first sse.SSEEvent) [][]byte {
	batch := make([][]byte, 0, maxBatchMessages)
	batch = append(batch, encode(fromEvent(first)))

	timer := time.NewTimer(writeBatchWindow)
	defer timer.Stop()

	for len(batch) < maxBatchMessages {
		select {
		case <-c.client.Done:
			return batch
		case event := <-c.client.Ch:
			if event.Type == sse.EventHeartbeat {
				continue
			}
			batch = append(batch, encode(fromEvent(event)))
		case <-timer.C:
			return batch
		}
	}
	return batch
}

// write sends one frame; several messages are joined into a JSON array.
func (c *Conn) write(messages [][]byte) error {
	payload := encodeBatch(messages)
	if len(payload) == 0 {
		return nil
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func encodeBatch(messages [][]byte) []byte {
	switch len(messages) {
	case 0:
		return nil
	case 1:
		return messages[0]
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for index, message := range messages {
		if index > 0 {
			buf.WriteByte(',')
		}
		buf.Write(message)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}
