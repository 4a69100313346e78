package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
	loggerpkg "github.com/janzenegnisaban/vision-board-sub000/pkg/logger"
)

const requestBodyLogLimit = 64 << 10

// RequestLogger logs one line per request with credentials scrubbed and
// records the request latency histogram.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		startedAt := time.Now()
		requestBody := snapshotRequestBody(c)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(startedAt)
		metrics.ObserveHTTPRequest(c.Request.Method, route, status, latency)

		if isStreamRoute(route) && status < 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.String("raw_path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status", status),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("latency", latency),
		}
		if query := queryMap(c); len(query) > 0 {
			fields = append(fields, zap.Any("query", query))
		}
		if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
			fields = append(fields, zap.String("trace_id", spanCtx.TraceID().String()))
		}
		if user, ok := GetIdentity(c); ok {
			fields = append(fields, zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
		}
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			fields = append(fields, zap.String("authorization", authHeader))
		}
		if len(requestBody) > 0 {
			var payload any
			if err := json.Unmarshal(requestBody, &payload); err == nil {
				fields = append(fields, zap.Any("request_body", payload))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		sanitized := loggerpkg.SanitizeFields(fields)
		switch {
		case status >= 500:
			logger.Error("http request completed", sanitized...)
		case status >= 400:
			logger.Warn("http request completed", sanitized...)
		default:
			logger.Info("http request completed", sanitized...)
		}
	}
}

func isStreamRoute(route string) bool {
	return strings.HasSuffix(route, "/events/stream") || strings.HasSuffix(route, "/display/ws")
}

func queryMap(c *gin.Context) map[string]any {
	values := c.Request.URL.Query()
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, list := range values {
		out[key] = strings.Join(list, ",")
	}
	return out
}

func snapshotRequestBody(c *gin.Context) []byte {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return nil
	}
	if !strings.Contains(c.GetHeader("Content-Type"), "json") {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		c.Request.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) <= requestBodyLogLimit {
		return raw
	}
	return nil
}
