package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
)

type slidingWindow struct {
	mu         sync.Mutex
	timestamps []int64
}

// RateLimiter keeps sliding-window counters per key. Windows live only in
// memory and reset on restart.
type RateLimiter struct {
	limit   int
	window  time.Duration
	windows sync.Map
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	if key == "" {
		key = "global"
	}
	entryAny, _ := l.windows.LoadOrStore(key, &slidingWindow{timestamps: make([]int64, 0, l.limit)})
	entry := entryAny.(*slidingWindow)

	nowNano := now.UnixNano()
	cutoff := nowNano - l.window.Nanoseconds()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts > cutoff {
			next = append(next, ts)
		}
	}
	entry.timestamps = next
	if len(entry.timestamps) >= l.limit {
		return false
	}
	entry.timestamps = append(entry.timestamps, nowNano)
	return true
}

// Sweep drops keys with no hit inside the window.
func (l *RateLimiter) Sweep(now time.Time) {
	cutoff := now.UnixNano() - l.window.Nanoseconds()
	l.windows.Range(func(key, value any) bool {
		entry := value.(*slidingWindow)
		entry.mu.Lock()
		idle := len(entry.timestamps) == 0 || entry.timestamps[len(entry.timestamps)-1] <= cutoff
		entry.mu.Unlock()
		if idle {
			l.windows.Delete(key)
		}
		return true
	})
}

func (l *RateLimiter) middleware(resolve func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(resolve(c), time.Now()) {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.Fail(c, 429, response.ErrTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ByIP limits per client address.
func (l *RateLimiter) ByIP() gin.HandlerFunc {
	return l.middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	})
}

// ByJSONField limits per value of a JSON body field, e.g. the login email,
// falling back to the client address when the field is absent.
func (l *RateLimiter) ByJSONField(field string) gin.HandlerFunc {
	field = strings.TrimSpace(field)
	return l.middleware(func(c *gin.Context) string {
		value := extractJSONField(c, field)
		if value == "" {
			return "json:" + field + ":missing:" + c.ClientIP()
		}
		return "json:" + field + ":" + strings.ToLower(value)
	})
}

// ByUser limits per signed-in user, or per address for guests.
func (l *RateLimiter) ByUser() gin.HandlerFunc {
	return l.middleware(func(c *gin.Context) string {
		if user, ok := GetIdentity(c); ok {
			return "user:" + user.ID.String()
		}
		return "ip:" + c.ClientIP()
	})
}

func extractJSONField(c *gin.Context, field string) string {
	if field == "" || c.Request == nil || c.Request.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, ok := payload[field].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
