package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	systemlog "github.com/janzenegnisaban/vision-board-sub000/pkg/logger"
)

type SystemHandler struct {
	logStore *systemlog.SystemLogStore
}

func NewSystemHandler(logStore *systemlog.SystemLogStore) *SystemHandler {
	return &SystemHandler{logStore: logStore}
}

func RegisterSystemRoutes(group *gin.RouterGroup, logStore *systemlog.SystemLogStore, verifier middleware.TokenVerifier) {
	handler := NewSystemHandler(logStore)
	system := group.Group("/system")
	system.GET("/logs", middleware.Auth(verifier), middleware.RequireRole(model.UserRoleSuperAdmin), handler.QueryLogs)
}

// QueryLogs serves GET /api/v1/system/logs.
// Recent application log entries, newest first (SUPERADMIN).
func (h *SystemHandler) QueryLogs(c *gin.Context) {
	if h.logStore == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "log service unavailable")
		return
	}

	from, err := parseSystemLogTime(c.Query("from"))
	if err != nil {
		badRequest(c, "invalid from")
		return
	}
	to, err := parseSystemLogTime(c.Query("to"))
	if err != nil {
		badRequest(c, "invalid to")
		return
	}

	p := parsePage(c)
	items, total := h.logStore.Query(systemlog.LogQuery{
		MinLevel: strings.TrimSpace(c.Query("level")),
		From:     from,
		To:       to,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if items == nil {
		items = []systemlog.SystemLogEntry{}
	}
	response.Paginated(c, items, p.Limit, p.Offset, total)
}

func parseSystemLogTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(dateLayout, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, errors.New("invalid time")
}
