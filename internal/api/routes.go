package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/internalapi"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	v1 "github.com/janzenegnisaban/vision-board-sub000/internal/api/v1"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
	systemlog "github.com/janzenegnisaban/vision-board-sub000/pkg/logger"
)

// Services is everything the public API delegates to.
type Services struct {
	Auth          *service.AuthService
	Announcements *service.AnnouncementService
	Events        *service.EventService
	Comments      *service.CommentService
	Reactions     *service.ReactionService
	Users         *service.UserService
	Analytics     *service.AnalyticsService
	Dashboard     *service.DashboardService
	Audit         *service.AuditService

	Hub      *sse.SSEHub
	LogStore *systemlog.SystemLogStore
	Logger   *zap.Logger
}

type Options struct {
	CookieSecure   bool
	AllowedOrigins []string

	AuthIPLimiter      *middleware.RateLimiter
	AuthAccountLimiter *middleware.RateLimiter
	EngagementLimiter  *middleware.RateLimiter
}

// RegisterV1Routes mounts the board API on group, normally /api/v1.
func RegisterV1Routes(group *gin.RouterGroup, svc Services, opts Options) {
	verifier := svc.Auth

	v1.RegisterAuthRoutes(group, svc.Auth, v1.AuthRouteOptions{
		CookieSecure:   opts.CookieSecure,
		IPLimiter:      opts.AuthIPLimiter,
		AccountLimiter: opts.AuthAccountLimiter,
	})
	v1.RegisterAnnouncementRoutes(group, svc.Announcements, verifier)
	v1.RegisterEventRoutes(group, svc.Events, verifier)
	v1.RegisterStreamRoutes(group, svc.Hub, verifier, opts.AllowedOrigins, svc.Logger)
	v1.RegisterEngagementRoutes(group, svc.Comments, svc.Reactions, verifier, opts.EngagementLimiter)
	v1.RegisterUserRoutes(group, svc.Users, verifier)
	v1.RegisterAnalyticsRoutes(group, svc.Analytics, verifier)
	v1.RegisterDashboardRoutes(group, svc.Dashboard, verifier)
	v1.RegisterAuditRoutes(group, svc.Audit, verifier)
	v1.RegisterSystemRoutes(group, svc.LogStore, verifier)
}

// RegisterInternalRoutes mounts operator endpoints behind the internal token.
func RegisterInternalRoutes(router gin.IRouter, token string, metricsHandler http.Handler, svc Services) {
	var live internalapi.LiveStats
	if svc.Hub != nil {
		live = svc.Hub
	}
	var sessions internalapi.SessionPurger
	if svc.Auth != nil {
		sessions = svc.Auth
	}
	internalapi.RegisterOpsRoutes(router, token, metricsHandler, sessions, live)
}
