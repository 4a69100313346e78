package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultSystemLogCapacity = 1000
	defaultLogLimit          = 50
	maxLogLimit              = 500
)

type SystemLogEntry struct {
	ID         int64          `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	LoggerName string         `json:"logger_name,omitempty"`
	Message    string         `json:"message"`
	Caller     string         `json:"caller,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// LogQuery filters the in-memory log. Zero values match everything.
type LogQuery struct {
	// MinLevel keeps entries at or above this level ("warn" keeps warn,
	// error and above).
	MinLevel string
	From     time.Time
	To       time.Time
	Keyword  string
	Limit    int
	Offset   int
}

// SystemLogStore keeps the most recent log entries in a fixed ring so a
// SUPERADMIN can read them over HTTP. Entries are scrubbed on write.
type SystemLogStore struct {
	mu       sync.RWMutex
	entries  []SystemLogEntry
	capacity int
	next     int
	count    int
	seq      int64
}

func NewSystemLogStore(capacity int) *SystemLogStore {
	if capacity <= 0 {
		capacity = DefaultSystemLogCapacity
	}
	return &SystemLogStore{
		entries:  make([]SystemLogEntry, capacity),
		capacity: capacity,
	}
}

// WrapZapLogger tees every entry base writes into store.
func WrapZapLogger(base *zap.Logger, store *SystemLogStore) *zap.Logger {
	if base == nil || store == nil {
		return base
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &systemLogCore{Core: core, store: store}
	}))
}

// Query returns matching entries newest first and the number of matches.
func (s *SystemLogStore) Query(q LogQuery) ([]SystemLogEntry, int64) {
	if s == nil {
		return nil, 0
	}

	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	if offset < 0 {
		offset = 0
	}

	minLevel, hasLevel := parseLevel(q.MinLevel)
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	entries := s.snapshotNewestFirst()
	filtered := make([]SystemLogEntry, 0, len(entries))
	for _, entry := range entries {
		if hasLevel {
			level, ok := parseLevel(entry.Level)
			if ok && level < minLevel {
				continue
			}
		}
		if !q.From.IsZero() && entry.Timestamp.Before(q.From.UTC()) {
			continue
		}
		if !q.To.IsZero() && entry.Timestamp.After(q.To.UTC()) {
			continue
		}
		if keyword != "" && !entryContains(entry, keyword) {
			continue
		}
		filtered = append(filtered, entry)
	}

	total := int64(len(filtered))
	if offset >= len(filtered) {
		return []SystemLogEntry{}, total
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total
}

func (s *SystemLogStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func parseLevel(raw string) (zapcore.Level, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, false
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return zapcore.InfoLevel, false
	}
	return level, true
}

func entryContains(entry SystemLogEntry, keyword string) bool {
	for _, value := range []string{entry.Message, entry.LoggerName, entry.Caller} {
		if strings.Contains(strings.ToLower(value), keyword) {
			return true
		}
	}
	return len(entry.Fields) > 0 && strings.Contains(strings.ToLower(fmt.Sprintf("%v", entry.Fields)), keyword)
}

func (s *SystemLogStore) add(entry zapcore.Entry, fields []zapcore.Field) {
	item := SystemLogEntry{
		Timestamp:  entry.Time.UTC(),
		Level:      entry.Level.String(),
		LoggerName: entry.LoggerName,
		Message:    entry.Message,
		Caller:     entry.Caller.TrimmedPath(),
		Stack:      entry.Stack,
		Fields:     fieldsToMap(fields),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	item.ID = s.seq
	s.entries[s.next] = item
	s.next = (s.next + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
}

func fieldsToMap(fields []zapcore.Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return SanitizeMap(enc.Fields)
}

func (s *SystemLogStore) snapshotNewestFirst() []SystemLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SystemLogEntry, 0, s.count)
	for i := 0; i < s.count; i++ {
		idx := s.next - 1 - i
		if idx < 0 {
			idx += s.capacity
		}
		out = append(out, s.entries[idx])
	}
	return out
}

// systemLogCore records entries into the store. Fields attached with
// Logger.With are kept in context so stored entries carry them too.
type systemLogCore struct {
	zapcore.Core
	store   *SystemLogStore
	context []zapcore.Field
}

func (c *systemLogCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.context)+len(fields))
	merged = append(merged, c.context...)
	merged = append(merged, fields...)
	return &systemLogCore{
		Core:    c.Core.With(fields),
		store:   c.store,
		context: merged,
	}
}

func (c *systemLogCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *systemLogCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := fields
	if len(c.context) > 0 {
		all = make([]zapcore.Field, 0, len(c.context)+len(fields))
		all = append(all, c.context...)
		all = append(all, fields...)
	}
	c.store.add(entry, all)
	return c.Core.Write(entry, fields)
}
