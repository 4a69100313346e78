package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/display"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
)

// StreamHandler serves the board feed. Guests get published changes;
// staff also get draft activity.
type StreamHandler struct {
	hub      *sse.SSEHub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(hub *sse.SSEHub, allowedOrigins []string, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func RegisterStreamRoutes(
	group *gin.RouterGroup,
	hub *sse.SSEHub,
	verifier middleware.TokenVerifier,
	allowedOrigins []string,
	logger *zap.Logger,
) {
	if hub == nil {
		return
	}

	handler := NewStreamHandler(hub, allowedOrigins, logger)
	group.GET("/events/stream", middleware.OptionalAuth(verifier), handler.Events)
	group.GET("/display/ws", middleware.OptionalAuth(verifier), handler.Display)
}

// Events serves GET /api/v1/events/stream.
// Server-sent board changes; honours Last-Event-ID.
func (h *StreamHandler) Events(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "stream unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	user := identityOrNil(c)
	client := sse.NewClient(user, sse.TransportSSE)
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	if _, err := fmt.Fprint(c.Writer, "retry: 3000\n\n"); err != nil {
		return
	}
	flusher.Flush()

	if lastID := strings.TrimSpace(c.GetHeader("Last-Event-ID")); lastID != "" {
		for _, event := range h.hub.Since(lastID, client.Role) {
			if err := writeSSEEvent(c.Writer, event); err != nil {
				return
			}
		}
		flusher.Flush()
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-client.Done:
			return
		case event := <-client.Ch:
			if err := writeSSEEvent(c.Writer, event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Display serves GET /api/v1/display/ws.
// Board changes over a websocket for wall displays.
func (h *StreamHandler) Display(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("display upgrade failed", zap.Error(err))
		return
	}

	lastID := strings.TrimSpace(c.GetHeader("Last-Event-ID"))
	if lastID == "" {
		lastID = strings.TrimSpace(c.Query("last_event_id"))
	}
	display.NewConn(ws, h.hub, identityOrNil(c), h.logger).Serve(lastID)
}

func writeSSEEvent(w gin.ResponseWriter, event sse.SSEEvent) error {
	if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	for _, line := range strings.Split(event.Data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func identityOrNil(c *gin.Context) *model.PublicUser {
	user, ok := middleware.GetIdentity(c)
	if !ok {
		return nil
	}
	return user
}

// originChecker admits same-origin requests, requests without an Origin
// header (native display clients) and the configured CORS origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			set[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := strings.TrimRight(r.Header.Get("Origin"), "/")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		return strings.EqualFold(origin, "http://"+r.Host) || strings.EqualFold(origin, "https://"+r.Host)
	}
}
