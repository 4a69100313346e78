package sse

import (
	"sort"
	"strconv"
	"sync"
)

const defaultReplayCapacity = 1000

type replayEntry struct {
	seq   int64
	event SSEEvent
}

// ReplayLog keeps the most recent events in id order so a reconnecting
// client can catch up from its Last-Event-ID.
type ReplayLog struct {
	mu       sync.RWMutex
	capacity int
	entries  []replayEntry
}

func NewReplayLog(capacity int) *ReplayLog {
	if capacity <= 0 {
		capacity = defaultReplayCapacity
	}
	return &ReplayLog{
		capacity: capacity,
		entries:  make([]replayEntry, 0, capacity),
	}
}

// Append records event. Events whose id is not a sequence number are not
// replayable and are skipped.
func (l *ReplayLog) Append(event SSEEvent) {
	if l == nil {
		return
	}
	seq, err := strconv.ParseInt(event.ID, 10, 64)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, replayEntry{seq: seq, event: event})
}

// Since returns retained events newer than lastID that accept lets
// through. An empty or unparsable lastID returns everything retained.
func (l *ReplayLog) Since(lastID string, accept func(SSEEvent) bool) []SSEEvent {
	if l == nil {
		return nil
	}

	after := int64(-1)
	if lastID != "" {
		if seq, err := strconv.ParseInt(lastID, 10, 64); err == nil {
			after = seq
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].seq > after
	})
	out := make([]SSEEvent, 0, len(l.entries)-start)
	for _, entry := range l.entries[start:] {
		if accept == nil || accept(entry.event) {
			out = append(out, entry.event)
		}
	}
	return out
}

func (l *ReplayLog) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
