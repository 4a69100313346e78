// Package internalapi serves operator endpoints that sit behind the
// internal token: metrics scraping, live client counts and maintenance.
package internalapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
)

// SessionPurger drops refresh tokens that are past their expiry.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// LiveStats reports connected board-feed clients per transport.
type LiveStats interface {
	Stats() map[string]int
}

type OpsHandler struct {
	sessions SessionPurger
	live     LiveStats
}

func NewOpsHandler(sessions SessionPurger, live LiveStats) *OpsHandler {
	return &OpsHandler{sessions: sessions, live: live}
}

func RegisterOpsRoutes(router gin.IRouter, token string, metricsHandler http.Handler, sessions SessionPurger, live LiveStats) {
	handler := NewOpsHandler(sessions, live)
	internal := router.Group("/internal", middleware.InternalTokenAuth(token))

	if metricsHandler != nil {
		internal.GET("/metrics", gin.WrapH(metricsHandler))
	}
	internal.GET("/live", handler.Live)
	internal.POST("/sessions/purge", handler.PurgeSessions)
}

func (h *OpsHandler) Live(c *gin.Context) {
	if h.live == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "live hub unavailable")
		return
	}
	stats := h.live.Stats()
	total := 0
	for _, n := range stats {
		total += n
	}
	response.Success(c, gin.H{"clients": stats, "total": total})
}

func (h *OpsHandler) PurgeSessions(c *gin.Context) {
	if h.sessions == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "session store unavailable")
		return
	}
	purged, err := h.sessions.PurgeExpiredSessions(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrUpstream, "purge failed")
		return
	}
	metrics.AddExpiredSessionsPurged(purged)
	response.Success(c, gin.H{"purged": purged})
}
