package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func RegisterAnalyticsRoutes(group *gin.RouterGroup, analyticsService *service.AnalyticsService, verifier middleware.TokenVerifier) {
	if analyticsService == nil {
		return
	}

	handler := NewAnalyticsHandler(analyticsService)
	analytics := group.Group("/analytics")
	analytics.Use(middleware.Auth(verifier))

	analytics.GET("", handler.List)
	analytics.POST("", handler.Record)
	analytics.GET("/content", handler.Content)
}

// List serves GET /api/v1/analytics.
// Daily snapshots in an inclusive UTC day range with totals (staff).
func (h *AnalyticsHandler) List(c *gin.Context) {
	days := service.DateRange{From: c.Query("from"), To: c.Query("to")}
	p := parsePage(c)

	items, err := h.analyticsService.List(c.Request.Context(), middleware.Subject(c), days, p.Limit, p.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	totals, err := h.analyticsService.Totals(c.Request.Context(), middleware.Subject(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.Analytics{}
	}
	response.Success(c, gin.H{"analytics": items, "totals": totals})
}

// Record appends a snapshot for the given UTC day, today when omitted.
func (h *AnalyticsHandler) Record(c *gin.Context) {
	var in service.AnalyticsInput
	if !bindJSON(c, &in) {
		return
	}

	item, err := h.analyticsService.Record(c.Request.Context(), middleware.Subject(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *AnalyticsHandler) Content(c *gin.Context) {
	limit := parsePage(c).Limit
	items, err := h.analyticsService.Content(c.Request.Context(), middleware.Subject(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.ContentEngagement{}
	}
	response.Success(c, gin.H{"content": items})
}
