package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
)

const (
	defaultBoardAnnouncements = 10
	defaultBoardEvents        = 10
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func RegisterDashboardRoutes(group *gin.RouterGroup, dashboardService *service.DashboardService, verifier middleware.TokenVerifier) {
	if dashboardService == nil {
		return
	}

	handler := NewDashboardHandler(dashboardService)
	group.GET("/dashboard", middleware.OptionalAuth(verifier), handler.Summary)
	group.GET("/board", handler.Board)
}

// Summary serves GET /api/v1/dashboard.
// Role-shaped dashboard: recent and upcoming for everyone, totals and analytics for staff.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, summary)
}

// Board is the public wall-display view: published announcements with
// their layouts and the next events.
func (h *DashboardHandler) Board(c *gin.Context) {
	announcements := parseIntOrDefault(c.Query("announcements"), defaultBoardAnnouncements)
	events := parseIntOrDefault(c.Query("events"), defaultBoardEvents)
	if announcements <= 0 || announcements > maxPageLimit {
		announcements = defaultBoardAnnouncements
	}
	if events <= 0 || events > maxPageLimit {
		events = defaultBoardEvents
	}

	board, err := h.dashboardService.Board(c.Request.Context(), announcements, events)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, board)
}
