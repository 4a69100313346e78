package display

import (
	"encoding/json"
	"time"

	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
)

type MsgType string

const (
	Hello  MsgType = "hello"
	Ping   MsgType = "ping"
	Pong   MsgType = "pong"
	Change MsgType = "change"
	Error  MsgType = "error"
)

// Message is one frame on the display socket. Change frames carry the
// board event name in Event and its JSON body in Payload.
type Message struct {
	Type      MsgType         `json:"type"`
	ID        string          `json:"id,omitempty"`
	Event     string          `json:"event,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type HelloPayload struct {
	ClientID string `json:"client_id"`
	Role     string `json:"role,omitempty"`
	Replayed int    `json:"replayed"`
}

func fromEvent(event sse.SSEEvent) Message {
	msg := Message{
		Type:      Change,
		ID:        event.ID,
		Event:     event.Type,
		Timestamp: time.Now().UTC(),
	}
	if event.Data != "" && json.Valid([]byte(event.Data)) {
		msg.Payload = json.RawMessage(event.Data)
	}
	return msg
}

func encode(msg Message) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return raw
}
