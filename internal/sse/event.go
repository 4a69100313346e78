package sse

import (
	"encoding/json"
	"strconv"
	"sync/atomic"
)

// Audience limits who may receive an event, including on replay.
type Audience uint8

const (
	AudienceAll Audience = iota
	AudienceStaff
)

type SSEEvent struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Data     string   `json:"data"`
	Audience Audience `json:"-"`
}

const (
	EventHeartbeat    = "heartbeat"
	EventAnnouncement = "announcement"
	EventBoardEvent   = "event"
	EventEngagement   = "engagement"
)

var globalEventID int64

func NewEvent(eventType string, payload any) SSEEvent {
	id := atomic.AddInt64(&globalEventID, 1)
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}

	return SSEEvent{
		ID:   strconv.FormatInt(id, 10),
		Type: eventType,
		Data: string(data),
	}
}

// StaffOnly returns a copy restricted to ADMIN and SUPERADMIN clients.
func (e SSEEvent) StaffOnly() SSEEvent {
	e.Audience = AudienceStaff
	return e
}
